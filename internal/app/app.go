package app

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plagcheck/internal/config"
	"plagcheck/internal/extract"
	"plagcheck/internal/orchestrator"
	"plagcheck/internal/report"
	"plagcheck/internal/server"
)

// Run executes the plagcheck command line.
func Run() error {
	return NewRootCommand().Execute()
}

type cliEnv struct {
	cfg    config.Config
	logger *zap.Logger
}

func NewRootCommand() *cobra.Command {
	rt := &cliEnv{}

	root := &cobra.Command{
		Use:           "plagcheck",
		Short:         "Plagiarism and AI-pattern checker backed by web and scholar search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			rt.cfg, rt.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	root.AddCommand(newServeCommand(rt), newCheckCommand(rt))
	return root
}

func newServeCommand(rt *cliEnv) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = rt.cfg.Addr
			}
			svc, err := NewService(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			srv := server.New(svc.Orchestrator, svc.Metrics, rt.logger, rt.cfg.MaxUploadBytes)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from PLAGCHECK_ADDR)")
	return cmd
}

func newCheckCommand(rt *cliEnv) *cobra.Command {
	var (
		asJSON  bool
		docxOut string
	)
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Analyze a PDF, DOCX or text file, or text typed on stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				text string
				err  error
			)
			if len(args) == 1 {
				text, err = readFile(args[0])
			} else {
				text, err = promptText(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}

			svc, err := NewService(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			rep, err := svc.Orchestrator.Run(cmd.Context(), orchestrator.Request{Text: &text})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				printSummary(out, rep)
			}

			if docxOut != "" {
				if err := report.Save(docxOut, rep, title(args)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", docxOut)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().StringVar(&docxOut, "docx", "", "also write a DOCX report to this path")
	return cmd
}

func title(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return filepath.Base(args[0])
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return extract.Text(data, mime.TypeByExtension(filepath.Ext(path)), filepath.Base(path))
}

// promptText asks for text until it passes validateQuery or input ends.
func promptText(in *bufio.Reader, w io.Writer) (string, error) {
	for {
		fmt.Fprintln(w, "Paste the text to check.")
		fmt.Fprintln(w, "Submit with a blank line.")
		fmt.Fprint(w, "> ")

		q, eof, err := readMultiline(in, w)
		if err != nil {
			return "", err
		}
		q = strings.TrimSpace(q)

		ok, reason := validateQuery(q)
		if ok {
			return q, nil
		}
		if eof {
			return "", fmt.Errorf("invalid input: %s", reason)
		}
		fmt.Fprintf(w, "Invalid input (%s). Please try again.\n\n", reason)
	}
}

// readMultiline collects lines until the first blank line after some
// text, or until the input ends.
func readMultiline(r *bufio.Reader, w io.Writer) (string, bool, error) {
	var lines []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return "", false, err
			}
			line = strings.TrimRight(line, "\r\n")
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
			return strings.Join(lines, "\n"), true, nil
		}

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			if len(lines) > 0 {
				break
			}
			fmt.Fprint(w, "> ")
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), false, nil
}

var (
	reDigitsPunctOnly = regexp.MustCompile(`^[\d\pP\pS\s]+$`)
	reWordToken       = regexp.MustCompile(`\pL{3,}`)
)

func validateQuery(q string) (bool, string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return false, "empty"
	}
	if reDigitsPunctOnly.MatchString(q) {
		return false, "no words detected"
	}
	if !reWordToken.MatchString(q) {
		return false, "no real word token found"
	}

	total := 0
	letters := 0
	for _, r := range q {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if float64(letters)/float64(total) < 0.30 {
		return false, "too many non-letter characters"
	}

	if len(strings.Fields(q)) < 3 {
		return false, "too few words"
	}
	return true, ""
}

func printSummary(w io.Writer, r *orchestrator.Report) {
	fmt.Fprintf(w, "Plagiarism:               %d%%\n", r.Percentage)
	fmt.Fprintf(w, "AI-generated probability: %d%%\n", r.AIGeneratedProbability)
	st := r.SearchStats
	fmt.Fprintf(w, "Fragments searched:       %d (ok %d, failed %d, blocked %d, timed out %d)\n",
		st.Fragments, st.Succeeded, st.Failed, st.Blocked, st.TimedOut)

	if len(r.Sources) == 0 {
		fmt.Fprintln(w, "\nNo matching sources found.")
		return
	}
	fmt.Fprintf(w, "\nSources (%d):\n", len(r.Sources))
	for i, s := range r.Sources {
		fmt.Fprintf(w, "%2d. [%3d%%] %s\n", i+1, s.MatchPercentage, s.Title)
		fmt.Fprintf(w, "    %s\n", s.URL)
		fmt.Fprintf(w, "    via %s\n", strings.Join(s.Providers, ", "))
	}
}
