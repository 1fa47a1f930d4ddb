package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pydocket/internal/errors"
	"pydocket/internal/example"
	"pydocket/internal/reader"
)

// errVerifyFailed is returned after the report has been printed so main
// only sets the exit status.
var errVerifyFailed = stderrors.New("example verification failed")

var (
	verifyNoEvaluate bool
	verifyFormat     string
	verifyOverrides  []string
)

var (
	stylePass = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleFail = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file.py>...",
	Short: "Run the usage examples of Python files",
	Long: `Read each file's documentation and run every usage example in it,
comparing each block's result with the value documented under it.

Documented values are evaluated as expressions unless --no-evaluate is given
or an override says otherwise for a passage. Overrides name passages by their
breadcrumb, e.g. Widget.make.usage.

Examples:
  pydocket verify pkg/widgets.py
  pydocket verify --no-evaluate pkg/*.py
  pydocket verify --override Widget.usage=false pkg/widgets.py
  pydocket verify --format json pkg/widgets.py`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyNoEvaluate, "no-evaluate", false, "Compare documented values as literal text")
	verifyCmd.Flags().StringVar(&verifyFormat, "format", "human", "Output format: human or json")
	verifyCmd.Flags().StringArrayVar(&verifyOverrides, "override", nil, "Per-passage evaluate setting, path=true|false (repeatable)")
	rootCmd.AddCommand(verifyCmd)
}

// VerifyReport is the result of one verify run.
type VerifyReport struct {
	RunID    string        `json:"runId"`
	Passed   bool          `json:"passed"`
	Duration string        `json:"duration"`
	Files    []*FileReport `json:"files"`
}

// FileReport is the outcome for one file.
type FileReport struct {
	Path    string         `json:"path"`
	Passed  bool           `json:"passed"`
	Blocks  int            `json:"blocks"`
	Failure *FailureReport `json:"failure,omitempty"`
}

// FailureReport describes the failure that stopped a file's verification.
type FailureReport struct {
	Code       errors.ErrorCode `json:"code"`
	Comment    string           `json:"comment,omitempty"`
	Message    string           `json:"message"`
	Correction string           `json:"correction,omitempty"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	format := OutputFormat(verifyFormat)
	if format != FormatHuman && format != FormatJSON {
		return fmt.Errorf("unsupported format: %s", format)
	}

	overrides := cfg.Verify.OverrideMap()
	for _, o := range verifyOverrides {
		path, value, ok := strings.Cut(o, "=")
		b, err := strconv.ParseBool(value)
		if !ok || path == "" || err != nil {
			return fmt.Errorf("invalid --override %q: want path=true|false", o)
		}
		overrides[path] = b
	}
	evaluate := cfg.Verify.Evaluate && !verifyNoEvaluate
	ev := example.Overrides(evaluate, overrides)

	report := &VerifyReport{RunID: uuid.NewString(), Passed: true}
	runLog := logger.With(slog.String("run", report.RunID))
	started := time.Now()

	rd := reader.New(runLog)
	for _, path := range args {
		fr := verifyFile(cmd, rd, runLog, path, ev)
		report.Files = append(report.Files, fr)
		report.Passed = report.Passed && fr.Passed
	}
	report.Duration = time.Since(started).Round(time.Millisecond).String()

	runLog.Info("verify finished",
		slog.Int("files", len(report.Files)),
		slog.Bool("passed", report.Passed),
		slog.String("duration", report.Duration),
	)

	var err error
	if format == FormatJSON {
		err = writeFormatted(cmd.OutOrStdout(), report, FormatJSON)
	} else {
		printVerifyHuman(cmd.OutOrStdout(), report)
	}
	if err != nil {
		return err
	}
	if !report.Passed {
		return errVerifyFailed
	}
	return nil
}

func verifyFile(cmd *cobra.Command, rd *reader.Reader, log *slog.Logger, path string, ev example.Evaluator) *FileReport {
	fr := &FileReport{Path: path, Passed: true}

	sym, err := rd.Read(cmd.Context(), path, "")
	if err != nil {
		fr.Passed = false
		fr.Failure = failure(err)
		log.Warn("read failed", slog.String("file", path), slog.String("error", err.Error()))
		return fr
	}

	v := example.NewVerifier(log)
	v.OnBlock = func(comment string, _ example.Block, err error) {
		fr.Blocks++
		if err != nil {
			log.Debug("block failed", slog.String("comment", comment))
		}
	}
	if err := v.AssertSymbol(sym, ev); err != nil {
		fr.Passed = false
		fr.Failure = failure(err)
	}
	log.Info("verified file",
		slog.String("file", path),
		slog.Int("blocks", fr.Blocks),
		slog.Bool("passed", fr.Passed),
	)
	return fr
}

func failure(err error) *FailureReport {
	f := &FailureReport{Code: errors.CodeOf(err), Message: err.Error()}
	var m *example.MismatchError
	if stderrors.As(err, &m) {
		f.Comment = m.Comment
		f.Correction = m.Correction
	}
	return f
}

func printVerifyHuman(w io.Writer, report *VerifyReport) {
	failed := 0
	for _, f := range report.Files {
		if f.Passed {
			fmt.Fprintf(w, "%s %s %s\n", stylePass.Render("PASS"), f.Path, styleDim.Render(fmt.Sprintf("(%d blocks)", f.Blocks)))
			continue
		}
		failed++
		fmt.Fprintf(w, "%s %s [%s]\n", styleFail.Render("FAIL"), f.Path, f.Failure.Code)
		for _, line := range strings.Split(f.Failure.Message, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("%d file(s), %d failed, run %s in %s",
		len(report.Files), failed, report.RunID, report.Duration)))
}
