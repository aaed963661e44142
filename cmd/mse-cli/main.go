package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	script "github.com/adrianmalacoda/MagicSetEditor2-1"
)

const (
	appName     = "mse-cli"
	historyFile = ".mse_script_history"
	promptMain  = "==> "
	promptCont  = "... "
)

var (
	banner = fmt.Sprintf("MSE script %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", script.Version)

	helpText = `
REPL commands:
  :help    Show this help
  :reset   Discard all variables and start fresh
  :quit    Exit the REPL
`
)

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(script.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`MSE script %s

Usage:
  %s run <file>    Run a script file and print its result
  %s repl          Start the interactive REPL
  %s version       Print the version

`, script.Version, appName, appName, appName)
}

func newContext() *script.Context {
	ctx := script.NewContext()
	script.InitScriptFunctions(ctx)
	return ctx
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file>\n", appName)
		return 2
	}
	file := args[0]
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	s, perrs := script.Parse(file, string(src))
	if len(perrs) > 0 {
		for _, pe := range perrs {
			fmt.Fprintln(os.Stderr, script.PrettyParseError(pe, string(src)))
		}
		return 1
	}

	ctx := newContext()
	v, err := ctx.Eval(s, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	fmt.Println(v.ToCode())
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ctx := newContext()

	for {
		code, ok := readInput(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			case ":help":
				fmt.Print(helpText)
			case ":reset":
				ctx = newContext()
				fmt.Println("context reset")
			default:
				fmt.Println("unknown command. Type :help for a list.")
			}
			continue
		}

		s, perrs := script.Parse("<repl>", code)
		if len(perrs) > 0 {
			for _, pe := range perrs {
				fmt.Fprintln(os.Stderr, red(script.PrettyParseError(pe, code)))
			}
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
			continue
		}

		v, err := ctx.Eval(s, false)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
			continue
		}
		fmt.Println(blue(v.ToCode()))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readInput reads one submission, prompting for continuation lines while the
// input has unbalanced brackets.
func readInput(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if !incomplete(src) {
			return src, true
		}
	}
}

// incomplete reports whether src has more opening than closing brackets
// outside of strings and comments.
func incomplete(src string) bool {
	depth := 0
	inStr := false
	inComment := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inComment {
			if c == '\n' {
				inComment = false
			}
			continue
		}
		if inStr {
			if c == '\\' {
				i++
			} else if c == '"' {
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '#':
			inComment = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth > 0 || inStr
}
