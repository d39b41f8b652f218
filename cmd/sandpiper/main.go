package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"sandpiper/interpreter-go/pkg/interpreter"
	"sandpiper/interpreter-go/pkg/parser"
	"sandpiper/interpreter-go/pkg/runtime"
	"sandpiper/interpreter-go/pkg/sandbox"
)

const historyFile = ".sandpiper_history"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sandpiper",
		Short:         "Sandboxed script execution for agent-generated code",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(newReplCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var (
		policyPath   string
		allowed      []string
		timeout      time.Duration
		awaitTimeout time.Duration
		entryPoint   string
		fold         bool
	)

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Execute a script and print the outcome as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args)
			if err != nil {
				return err
			}

			opts := interpreter.Options{
				AllowedModules: allowed,
				Timeout:        timeout,
				AwaitTimeout:   awaitTimeout,
				EntryPoint:     entryPoint,
				FoldConstants:  fold,
			}
			if policyPath != "" {
				cfg, err := sandbox.LoadPolicyConfig(policyPath)
				if err != nil {
					return err
				}
				opts.Policy = cfg.Policy()
				if timeout == 0 {
					opts.Timeout = time.Duration(cfg.TimeoutSeconds * float64(time.Second))
				}
			}

			outcome := interpreter.Execute(cmd.Context(), source, opts)
			encoded, err := json.MarshalIndent(outcome, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			if outcome.Error != "" {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&policyPath, "policy", "p", "", "path to a YAML policy file")
	cmd.Flags().StringSliceVarP(&allowed, "allow", "a", nil, "module names to allow importing")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "execution deadline (default 5s)")
	cmd.Flags().DurationVar(&awaitTimeout, "await-timeout", 0, "per-await deadline, raised as TimeoutError (default off)")
	cmd.Flags().StringVarP(&entryPoint, "entry", "e", "", "function to call after the module body runs")
	cmd.Flags().BoolVar(&fold, "fold-constants", false, "precompute literal-only expressions before running")
	return cmd
}

func readSource(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newReplCommand() *cobra.Command {
	var (
		policyPath string
		allowed    []string
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive session with a persistent module scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := sandbox.NewPolicy(allowed)
			if policyPath != "" {
				cfg, err := sandbox.LoadPolicyConfig(policyPath)
				if err != nil {
					return err
				}
				policy = cfg.Policy()
			}
			return runRepl(cmd.Context(), policy)
		},
	}

	cmd.Flags().StringVarP(&policyPath, "policy", "p", "", "path to a YAML policy file")
	cmd.Flags().StringSliceVarP(&allowed, "allow", "a", nil, "module names to allow importing")
	return cmd
}

func runRepl(ctx context.Context, policy *sandbox.Policy) error {
	if ctx == nil {
		ctx = context.Background()
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	interp := interpreter.New(ctx, policy)
	written := 0

	fmt.Println("sandpiper repl (ctrl-d to exit)")
	for {
		input, err := readReplInput(line)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		mod, err := parser.Parse(input)
		if err != nil {
			fmt.Printf("SyntaxError: %s\n", err)
			continue
		}
		result, err := interp.EvaluateModule(mod)

		// print() output accumulates across inputs; show only the new part.
		out := interp.Stdout()
		if len(out) > written {
			fmt.Print(out[written:])
			written = len(out)
		}

		if err != nil {
			fmt.Println(err)
			continue
		}
		if _, isNone := result.(runtime.NoneValue); !isNone && result != nil {
			fmt.Println(runtime.Repr(result))
		}
	}

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}

// readReplInput collects one logical input. A trailing colon opens a block
// that is terminated by an empty continuation line.
func readReplInput(line *liner.State) (string, error) {
	first, err := line.Prompt(">>> ")
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.TrimSpace(first), ":") {
		return first, nil
	}

	lines := []string{first}
	for {
		next, err := line.Prompt("... ")
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(next) == "" {
			break
		}
		lines = append(lines, next)
	}
	return strings.Join(lines, "\n"), nil
}
