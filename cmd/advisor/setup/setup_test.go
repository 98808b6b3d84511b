package setup_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/advisor"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/stream"
	testutils "github.com/papercomputeco/advisor/pkg/utils/test"
)

var _ = Describe("Load", func() {
	var configDir string

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
	})

	// load runs a command carrying the server and style flags and returns
	// the Env it resolved.
	load := func(args ...string) (*setup.Env, error) {
		var (
			env     *setup.Env
			loadErr error
			server  string
			style   string
		)

		cmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, _ []string) error {
				env, loadErr = setup.Load(cmd, config.FlagServer, config.FlagStyle)
				return nil
			},
		}
		cmd.Flags().String("config-dir", "", "")
		cmd.Flags().String("log-file", "", "")
		config.AddStringFlag(cmd, config.Flags, config.FlagServer, &server)
		config.AddStringFlag(cmd, config.Flags, config.FlagStyle, &style)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"--config-dir", configDir}, args...))

		Expect(cmd.Execute()).To(Succeed())
		if env != nil {
			DeferCleanup(env.Close)
		}
		return env, loadErr
	}

	writeConfig := func(content string) {
		Expect(os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o600)).To(Succeed())
	}

	It("uses defaults without a config file", func() {
		env, err := load()
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Config.Server.URL).To(Equal("http://localhost:5000"))
		Expect(env.Client.BaseURL()).To(Equal("http://localhost:5000"))
		Expect(env.Debounce().Milliseconds()).To(Equal(int64(150)))
	})

	It("prefers flags over the environment and the config file", func() {
		writeConfig("version = 0\n\n[server]\nurl = \"http://file.test\"\n\n[render]\nstyle = \"light\"\n")
		GinkgoT().Setenv("ADVISOR_SERVER_URL", "http://env.test")

		env, err := load("--server", "http://flag.test")
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Config.Server.URL).To(Equal("http://flag.test"))
		Expect(env.Config.Render.Style).To(Equal("light"))
	})

	It("prefers the environment over the config file", func() {
		writeConfig("[server]\nurl = \"http://file.test\"\n")
		GinkgoT().Setenv("ADVISOR_SERVER_URL", "http://env.test")

		env, err := load()
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Config.Server.URL).To(Equal("http://env.test"))
	})

	It("rejects unknown styles", func() {
		_, err := load("--style", "neon")
		Expect(err).To(MatchError(ContainSubstring(`invalid render style "neon"`)))
	})

	It("writes JSON logs to --log-file", func() {
		logFile := filepath.Join(configDir, "advisor.log")

		env, err := load("--log-file", logFile)
		Expect(err).NotTo(HaveOccurred())
		env.Logger.Debug("hello from the test")
		Expect(env.Close()).To(Succeed())

		data, err := os.ReadFile(logFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"hello from the test"`))
	})

	It("can be closed more than once", func() {
		env, err := load("--log-file", filepath.Join(configDir, "advisor.log"))
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Close()).To(Succeed())
		Expect(env.Close()).To(Succeed())
	})

	It("resolves the reports directory", func() {
		env, err := load()
		Expect(err).NotTo(HaveOccurred())

		dir, err := env.ReportsDir()
		Expect(err).NotTo(HaveOccurred())
		Expect(dir).To(Equal(filepath.Join(configDir, "reports")))

		env.Config.Export.Dir = "/srv/reports"
		dir, err = env.ReportsDir()
		Expect(err).NotTo(HaveOccurred())
		Expect(dir).To(Equal("/srv/reports"))
	})
})

var _ = Describe("InvitationCode", func() {
	It("uses the configured code", func() {
		env := &setup.Env{Config: config.NewDefaultConfig()}
		env.Config.Auth.InvitationCode = "  GAOKAO2025 "

		code, err := env.InvitationCode(&cobra.Command{})
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal("GAOKAO2025"))
	})

	It("does not prompt when stdin is not a terminal", func() {
		env := &setup.Env{Config: config.NewDefaultConfig()}
		cmd := &cobra.Command{}
		cmd.SetIn(strings.NewReader("GAOKAO2025\n"))

		_, err := env.InvitationCode(cmd)
		Expect(err).To(MatchError(advisor.ErrEmptyCode))
	})
})

var _ = Describe("CheckQuota", func() {
	var (
		backend *testutils.FakeBackend
		env     *setup.Env
		out     *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		backend, err = testutils.NewFakeBackend("GAOKAO2025")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(backend.Close)

		cfg := config.NewDefaultConfig()
		env = &setup.Env{
			Config: cfg,
			Client: advisor.New(advisor.Config{BaseURL: backend.URL}),
		}
		out = &bytes.Buffer{}
	})

	It("prints the quota", func() {
		backend.SetUsage(session.Snapshot{Used: 7, Limit: 10})

		Expect(setup.CheckQuota(context.Background(), env.Conversation("GAOKAO2025"), out)).To(Succeed())
		Expect(ansi.Strip(out.String())).To(ContainSubstring("今日用量: 7 / 10"))
	})

	It("fails when the quota is used up", func() {
		backend.SetUsage(session.Snapshot{Used: 10, Limit: 10})

		err := setup.CheckQuota(context.Background(), env.Conversation("GAOKAO2025"), out)
		Expect(err).To(MatchError(session.ErrQuotaExhausted))
		Expect(setup.Describe(err)).To(Equal(setup.QuotaMessage))
	})

	It("does not block on an unknown quota", func() {
		backend.FailUsage()

		Expect(setup.CheckQuota(context.Background(), env.Conversation("GAOKAO2025"), out)).To(Succeed())
		Expect(ansi.Strip(out.String())).To(ContainSubstring("今日用量: 未知"))
	})
})

var _ = Describe("Describe", func() {
	DescribeTable("student-facing messages",
		func(err error, want string) {
			Expect(setup.Describe(err)).To(Equal(want))
		},
		Entry("exhausted quota", fmt.Errorf("submit: %w", session.ErrQuotaExhausted), setup.QuotaMessage),
		Entry("rejected code", &advisor.VerificationError{Message: "无效的邀请码。"}, "无效的邀请码。"),
		Entry("backend message", &advisor.APIError{StatusCode: 500, Message: "服务繁忙"}, "服务繁忙"),
		Entry("server error frame", fmt.Errorf("streaming report: %w", &stream.ServerError{Message: "模型超时"}), "服务器错误: 模型超时"),
		Entry("empty code", advisor.ErrEmptyCode, "邀请码不能为空"),
		Entry("anything else", errors.New("connection refused"), "请求失败: connection refused"),
	)

	It("leaves unknown errors alone on the command line", func() {
		Expect(setup.Message(errors.New(`unknown command "foo"`))).To(Equal(`unknown command "foo"`))
		Expect(setup.Message(&advisor.VerificationError{})).To(Equal("验证失败。"))
	})
})

var _ = Describe("Reported", func() {
	It("marks errors without hiding them", func() {
		cause := &stream.ServerError{Message: "模型超时"}
		err := setup.Reported(fmt.Errorf("streaming report: %w", cause))

		Expect(setup.IsReported(err)).To(BeTrue())
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(setup.IsReported(cause)).To(BeFalse())
		Expect(setup.Reported(nil)).To(BeNil())
	})
})
