package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/hail/bridge"
	"github.com/wippyai/hail/compare"
	"github.com/wippyai/hail/types"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Schema    string
	Verbose   bool
	NullsLast bool
}

// NewRootCommand creates the root command for the hail CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hail",
		Short: "hail - typed binary values",
		Long: `Resolve type specs and encode, decode, compare and hash values in the
hail wire format. Values are given as JSON, encodings as hex.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogging()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Schema, "schema", "s", "", "YAML file of named type definitions")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to stderr")
	cmd.PersistentFlags().BoolVar(&opts.NullsLast, "nulls-last", false, "order absent nullables after present values")

	cmd.AddCommand(newResolveCommand(opts))
	cmd.AddCommand(newEncodeCommand(opts))
	cmd.AddCommand(newDecodeCommand(opts))
	cmd.AddCommand(newCompareCommand(opts))
	cmd.AddCommand(newHashCommand(opts))
	cmd.AddCommand(newReplCommand(opts))

	return cmd
}

func (o *RootOptions) setupLogging() error {
	if !o.Verbose {
		return nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	types.SetLogger(l.Named("types"))
	bridge.SetLogger(l.Named("bridge"))
	return nil
}

// newBridge opens a bridge that resolves names from --schema.
func (o *RootOptions) newBridge() (*bridge.Bridge, error) {
	if o.Schema == "" {
		return bridge.New(), nil
	}
	f, err := os.Open(o.Schema)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()

	schema, err := types.LoadSchema(f)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", o.Schema, err)
	}
	return bridge.New(bridge.WithSchema(schema)), nil
}

func (o *RootOptions) compareOptions() []compare.Option {
	if o.NullsLast {
		return []compare.Option{compare.WithNullsLast()}
	}
	return nil
}

// withScope runs fn in a bridge scope and closes the bridge afterwards.
func (o *RootOptions) withScope(fn func(*bridge.Scope) error) error {
	b, err := o.newBridge()
	if err != nil {
		return err
	}
	defer b.Close()
	return b.Scope(fn)
}
