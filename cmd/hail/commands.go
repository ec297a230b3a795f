package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/hail/bridge"
)

func newResolveCommand(opts *RootOptions) *cobra.Command {
	var info bool
	cmd := &cobra.Command{
		Use:   "resolve <type>",
		Short: "Print the canonical form of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withScope(func(s *bridge.Scope) error {
				th, err := s.ResolveType(args[0])
				if err != nil {
					return err
				}
				d, err := s.Bridge().Descriptor(th)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, d)
				if info {
					fmt.Fprintf(out, "id: %d\nmin size: %d\n", d.ID(), d.MinEncodedSize())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&info, "info", false, "also print the descriptor id and minimum encoded size")
	return cmd
}

func newEncodeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <type> <json|->",
		Short: "Encode a JSON value as hex",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := argOrStdin(cmd, args[1])
			if err != nil {
				return err
			}
			return opts.withScope(func(s *bridge.Scope) error {
				v, err := buildFromJSON(s, args[0], input)
				if err != nil {
					return err
				}
				buf, err := s.Bridge().Encode(v)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf))
				return nil
			})
		},
	}
}

func newDecodeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <type> <hex|->",
		Short: "Decode hex bytes and print the value as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := argOrStdin(cmd, args[1])
			if err != nil {
				return err
			}
			buf, err := parseHex(input)
			if err != nil {
				return err
			}
			return opts.withScope(func(s *bridge.Scope) error {
				th, err := s.ResolveType(args[0])
				if err != nil {
					return err
				}
				v, err := s.Decode(buf, th)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s.Bridge(), v)
			})
		},
	}
}

func newCompareCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <type> <json> <json>",
		Short: "Order two values: LT, EQ or GT",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withScope(func(s *bridge.Scope) error {
				a, err := buildFromJSON(s, args[0], args[1])
				if err != nil {
					return err
				}
				b, err := buildFromJSON(s, args[0], args[2])
				if err != nil {
					return err
				}
				ord, err := s.Bridge().Compare(a, b, opts.compareOptions()...)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ord)
				return nil
			})
		},
	}
}

func newHashCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <type> <json|->",
		Short: "Print the 64-bit hash of a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := argOrStdin(cmd, args[1])
			if err != nil {
				return err
			}
			return opts.withScope(func(s *bridge.Scope) error {
				v, err := buildFromJSON(s, args[0], input)
				if err != nil {
					return err
				}
				sum, err := s.Bridge().Hash(v)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%016x\n", sum)
				return nil
			})
		},
	}
}

// argOrStdin returns arg, or all of stdin when arg is "-".
func argOrStdin(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// parseHex accepts hex with arbitrary whitespace between digits.
func parseHex(s string) ([]byte, error) {
	buf, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return buf, nil
}
