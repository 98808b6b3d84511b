// Package setup resolves the configuration, logger and backend client
// shared by advisor commands.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/advisor/pkg/advisor"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/dotdir"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/stream"
)

// QuotaMessage is shown when today's quota is used up.
const QuotaMessage = "非常抱歉，今日的免费体验名额已被抢完！请您明日再来。"

// Env is the resolved runtime of one command invocation.
type Env struct {
	Config    *config.Config
	ConfigDir string
	Logger    *slog.Logger
	Client    *advisor.Client

	closers []io.Closer
}

// Load resolves configuration with flag > env > file > default precedence,
// binding the registry flags named by flagKeys, and builds the logger and
// client. Callers must Close the Env.
func Load(cmd *cobra.Command, flagKeys ...string) (*Env, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	configDir, _ := cmd.Flags().GetString("config-dir")
	logFile, _ := cmd.Flags().GetString("log-file")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	cfg := config.FromViper(v)
	if !config.ValidStyle(cfg.Render.Style) {
		return nil, fmt.Errorf("invalid render style %q (available: %s)", cfg.Render.Style, strings.Join(config.Styles, ", "))
	}

	env := &Env{
		Config:    cfg,
		ConfigDir: configDir,
	}

	l := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithPrefix("advisor"),
		logger.WithWriter(cmd.ErrOrStderr()),
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		env.closers = append(env.closers, f)
		l = logger.Tee(l, logger.New(
			logger.WithDebug(true),
			logger.WithJSON(true),
			logger.WithWriter(f),
		))
	}
	env.Logger = l

	env.Client = advisor.New(advisor.Config{
		BaseURL: cfg.Server.URL,
		Logger:  l,
	})

	l.Debug("configuration resolved",
		"server", cfg.Server.URL,
		"style", cfg.Render.Style,
		"debounce_ms", cfg.Render.DebounceMS,
	)

	return env, nil
}

// Close releases log files opened by Load. Later calls do nothing.
func (e *Env) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Debounce returns the configured answer render interval.
func (e *Env) Debounce() time.Duration {
	return time.Duration(e.Config.Render.DebounceMS) * time.Millisecond
}

// Markdown builds the renderer for output written to out along with the
// size of the terminal behind it.
func (e *Env) Markdown(out io.Writer) (*cliui.Markdown, int, int, error) {
	width, height := cliui.TerminalSize(out, 80, 24)

	wrap := e.Config.Render.WordWrap
	if wrap <= 0 || wrap > width-2 {
		wrap = width - 2
	}

	md, err := cliui.NewMarkdown(cliui.ResolveStyle(e.Config.Render.Style, cliui.IsTerminal(out)), wrap)
	if err != nil {
		return nil, 0, 0, err
	}
	return md, width, height, nil
}

// Surface builds the terminal surface for a report written to out. Status
// output goes to status on non-terminal output.
func (e *Env) Surface(out, status io.Writer) (stream.Surface, error) {
	md, width, height, err := e.Markdown(out)
	if err != nil {
		return nil, err
	}

	return cliui.NewSurface(cliui.SurfaceConfig{
		Out:          out,
		Status:       status,
		Markdown:     md,
		ShowThinking: e.Config.Render.ShowThinking,
		Width:        width,
		Height:       height,
	}), nil
}

// Conversation starts a new session using the configured invitation code.
func (e *Env) Conversation(code string, opts ...stream.Option) *advisor.Conversation {
	sess := session.New()
	sess.SetInvitationCode(code)

	opts = append([]stream.Option{stream.WithDebounce(e.Debounce())}, opts...)
	return advisor.NewConversation(e.Client, sess, session.NewTracker(), e.Logger, opts...)
}

// InvitationCode returns the configured invitation code. When none is set
// and stdin is a terminal, it prompts for one without echo.
func (e *Env) InvitationCode(cmd *cobra.Command) (string, error) {
	if code := strings.TrimSpace(e.Config.Auth.InvitationCode); code != "" {
		return code, nil
	}

	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return "", fmt.Errorf("%w (use --code or \"advisor verify\")", advisor.ErrEmptyCode)
	}

	code, err := cliui.ReadSecret(in, cmd.ErrOrStderr(), "请输入邀请码: ")
	if err != nil {
		return "", fmt.Errorf("reading invitation code: %w", err)
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return "", advisor.ErrEmptyCode
	}
	return code, nil
}

// CheckQuota refreshes the quota and prints it to w. An unknown quota is
// reported and does not block; an exhausted one returns an error wrapping
// session.ErrQuotaExhausted.
func CheckQuota(ctx context.Context, conv *advisor.Conversation, w io.Writer) error {
	s, err := conv.RefreshUsage(ctx)
	if err != nil {
		fmt.Fprintf(w, "  %s %s\n", cliui.WarnStyle.Render("!"), cliui.DimStyle.Render("今日用量: 未知"))
		return nil
	}

	fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render(s.String()))

	if s.Exhausted() {
		return QuotaError(s)
	}
	return nil
}

// QuotaError is the error reported when s leaves no submissions.
func QuotaError(s session.Snapshot) error {
	return fmt.Errorf("%s (%d / %d): %w", QuotaMessage, s.Used, s.Limit, session.ErrQuotaExhausted)
}

// Describe turns a request error into the message shown to the student.
func Describe(err error) string {
	if msg, ok := describe(err); ok {
		return msg
	}
	return "请求失败: " + err.Error()
}

// Message is Describe for errors that reach the command line. Errors that
// did not come from the backend are shown as they are.
func Message(err error) string {
	if msg, ok := describe(err); ok {
		return msg
	}
	return err.Error()
}

func describe(err error) (string, bool) {
	var (
		verr   *advisor.ValidationError
		vcode  *advisor.VerificationError
		apiErr *advisor.APIError
		serr   *stream.ServerError
	)

	switch {
	case errors.Is(err, session.ErrQuotaExhausted):
		return QuotaMessage, true
	case errors.As(err, &verr):
		return "请检查输入: " + verr.Error(), true
	case errors.As(err, &vcode):
		return vcode.Error(), true
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message, true
		}
		return apiErr.Error(), true
	case errors.As(err, &serr):
		return "服务器错误: " + serr.Message, true
	case errors.Is(err, advisor.ErrEmptyCode):
		return err.Error(), true
	default:
		return "", false
	}
}

// reportedError marks an error the surface has already shown.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// Reported marks err as already shown to the student.
func Reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

// IsReported reports whether err was marked by Reported.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// ReportsDir returns the export directory: export.dir when set, otherwise
// reports/ inside the resolved .advisor/ directory.
func (e *Env) ReportsDir() (string, error) {
	if e.Config.Export.Dir != "" {
		return e.Config.Export.Dir, nil
	}
	return dotdir.NewManager().ReportsDir(e.ConfigDir)
}
