package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/hail/bridge"
	"github.com/wippyai/hail/codec"
)

const replHelp = `:type <spec>      set the current type
<json>            build a value of the current type
:decode <hex>     decode bytes as the current type
:project <path>   show a child of the last value, e.g. tags[1]
:compare <json>   order the last value against another
:help             show this help
:quit             exit`

var errQuit = errors.New("quit")

// session is the repl state: the current type and the last value, both
// owned handles.
type session struct {
	b    *bridge.Bridge
	opts *RootOptions
	typ  bridge.Handle
	last bridge.Handle
}

func newSession(b *bridge.Bridge, opts *RootOptions) *session {
	return &session{b: b, opts: opts}
}

func (s *session) close() {
	if s.last != 0 {
		_ = s.b.Release(s.last)
	}
	if s.typ != 0 {
		_ = s.b.Release(s.typ)
	}
	s.last, s.typ = 0, 0
}

// replace swaps *slot to h, releasing the handle it held.
func (s *session) replace(slot *bridge.Handle, h bridge.Handle) {
	if *slot != 0 {
		_ = s.b.Release(*slot)
	}
	*slot = h
}

func (s *session) eval(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	if !strings.HasPrefix(line, ":") {
		return s.build(line)
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "type", "t":
		return s.setType(arg)
	case "decode", "d":
		return s.decode(arg)
	case "project", "p":
		return s.project(arg)
	case "compare", "c":
		return s.compare(arg)
	case "help", "h":
		return replHelp, nil
	case "quit", "q":
		return "", errQuit
	}
	return "", fmt.Errorf("unknown command :%s (try :help)", cmd)
}

func (s *session) setType(spec string) (string, error) {
	th, err := s.b.ResolveType(spec)
	if err != nil {
		return "", err
	}
	s.replace(&s.typ, th)
	s.replace(&s.last, 0)

	d, err := s.b.Descriptor(th)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

func (s *session) requireType() error {
	if s.typ == 0 {
		return fmt.Errorf("no type set (use :type <spec>)")
	}
	return nil
}

func (s *session) build(input string) (string, error) {
	if err := s.requireType(); err != nil {
		return "", err
	}
	host, err := parseJSON(input)
	if err != nil {
		return "", err
	}
	v, err := s.b.BuildValue(s.typ, host)
	if err != nil {
		return "", err
	}
	s.replace(&s.last, v)
	return s.describe(v)
}

func (s *session) decode(input string) (string, error) {
	if err := s.requireType(); err != nil {
		return "", err
	}
	buf, err := parseHex(input)
	if err != nil {
		return "", err
	}
	v, err := s.b.Decode(buf, s.typ)
	if err != nil {
		return "", err
	}
	s.replace(&s.last, v)
	return s.describe(v)
}

func (s *session) describe(h bridge.Handle) (string, error) {
	v, err := s.b.Value(h)
	if err != nil {
		return "", err
	}
	sum, err := s.b.Hash(h)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\nhex:  %x\nhash: %016x", v, codec.Encode(v), sum), nil
}

func (s *session) requireValue() error {
	if s.last == 0 {
		return fmt.Errorf("no value yet (enter JSON or :decode <hex>)")
	}
	return nil
}

func (s *session) project(path string) (string, error) {
	if err := s.requireValue(); err != nil {
		return "", err
	}
	child, err := s.b.Project(s.last, path)
	if err != nil {
		return "", err
	}
	defer s.b.Release(child)

	v, err := s.b.Value(child)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s : %s", v, v.Type()), nil
}

func (s *session) compare(input string) (string, error) {
	if err := s.requireValue(); err != nil {
		return "", err
	}
	host, err := parseJSON(input)
	if err != nil {
		return "", err
	}
	other, err := s.b.BuildValue(s.typ, host)
	if err != nil {
		return "", err
	}
	defer s.b.Release(other)

	ord, err := s.b.Compare(s.last, other, s.opts.compareOptions()...)
	if err != nil {
		return "", err
	}
	return ord.String(), nil
}

type replStyles struct {
	title  lipgloss.Style
	prompt lipgloss.Style
	result lipgloss.Style
	err    lipgloss.Style
	help   lipgloss.Style
}

func newReplStyles(color bool) replStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return replStyles{plain, plain, plain, plain, plain}
	}
	return replStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		result: lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		help:   lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

const maxHistory = 20

type replEntry struct {
	err    error
	input  string
	output string
}

type replModel struct {
	sess    *session
	styles  replStyles
	input   textinput.Model
	history []replEntry
}

func newReplModel(sess *session, styles replStyles) *replModel {
	ti := textinput.New()
	ti.Placeholder = ":type struct{id: int32}"
	ti.Prompt = "hail> "
	ti.PromptStyle = styles.prompt
	ti.Width = 60
	ti.Focus()
	return &replModel{sess: sess, styles: styles, input: ti}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			out, err := m.sess.eval(line)
			if errors.Is(err, errQuit) {
				return m, tea.Quit
			}
			if strings.TrimSpace(line) != "" {
				m.history = append(m.history, replEntry{input: line, output: out, err: err})
				if len(m.history) > maxHistory {
					m.history = m.history[len(m.history)-maxHistory:]
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *replModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("hail"))
	if m.sess.typ != 0 {
		if d, err := m.sess.b.Descriptor(m.sess.typ); err == nil {
			b.WriteString(" ")
			b.WriteString(d.String())
		}
	}
	b.WriteString("\n\n")

	for _, e := range m.history {
		b.WriteString(m.styles.prompt.Render("> " + e.input))
		b.WriteString("\n")
		if e.err != nil {
			b.WriteString(m.styles.err.Render("Error: " + e.err.Error()))
		} else if e.output != "" {
			b.WriteString(m.styles.result.Render(e.output))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.styles.help.Render(":help commands • enter eval • esc quit"))
	return b.String()
}

func newReplCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive type and value explorer",
		Long: `Interactive type and value explorer. On a terminal it runs a full-screen
prompt; with piped input it evaluates one line at a time.

` + replHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.newBridge()
			if err != nil {
				return err
			}
			defer b.Close()

			sess := newSession(b, opts)
			defer sess.close()

			in, out := cmd.InOrStdin(), cmd.OutOrStdout()
			if !isTerminal(in) {
				return runLines(sess, in, out)
			}
			p := tea.NewProgram(newReplModel(sess, newReplStyles(isTerminal(out))),
				tea.WithInput(in), tea.WithOutput(out))
			_, err = p.Run()
			return err
		},
	}
}

// runLines evaluates input line by line, reporting errors inline.
func runLines(sess *session, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		res, err := sess.eval(sc.Text())
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintf(out, "Error: %v\n", err)
		case res != "":
			fmt.Fprintln(out, res)
		}
	}
	return sc.Err()
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
