package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memvault/pkg/logger"
)

func parseJSONLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes text records with key/value pairs", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("snapshot written", "filename", "backup-1.json")

			Expect(buf.String()).To(ContainSubstring("snapshot written"))
			Expect(buf.String()).To(ContainSubstring("backup-1.json"))
		})

		It("drops debug records unless debug is enabled", func() {
			var quiet, loud bytes.Buffer
			logger.New(logger.WithWriter(&quiet)).Debug("hidden")
			logger.New(logger.WithWriter(&loud), logger.WithDebug(true)).Debug("shown")

			Expect(quiet.String()).To(BeEmpty())
			Expect(loud.String()).To(ContainSubstring("shown"))
		})

		It("emits one JSON object per record in JSON mode", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("push exhausted", "attempts", 3)

			parsed := parseJSONLine(&buf)
			Expect(parsed["msg"]).To(Equal("push exhausted"))
			Expect(parsed["attempts"]).To(BeNumerically("==", 3))
		})

		It("renders through the pretty handler", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Warn("retention failure", "file", "backup-0.json")

			Expect(buf.String()).To(ContainSubstring("retention failure"))
			Expect(buf.String()).To(ContainSubstring("backup-0.json"))
		})

		It("fans out to every writer", func() {
			var a, b bytes.Buffer
			logger.New(logger.WithWriters(&a, &b)).Info("committed")

			Expect(a.String()).To(ContainSubstring("committed"))
			Expect(b.String()).To(ContainSubstring("committed"))
		})
	})

	Describe("Nop", func() {
		It("is disabled at every level", func() {
			l := logger.Nop()
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
			Expect(func() { l.With("run_id", "x").Info("msg") }).NotTo(Panic())
		})
	})

	Describe("Multi", func() {
		It("dispatches a record to every logger", func() {
			var text, js bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&text)),
				logger.New(logger.WithWriter(&js), logger.WithJSON(true)),
			)
			multi.Info("run complete", "outcome", "synced")

			Expect(text.String()).To(ContainSubstring("run complete"))
			Expect(parseJSONLine(&js)["outcome"]).To(Equal("synced"))
		})

		It("carries With attributes and groups to children", func() {
			var buf bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))
			multi.With("run_id", "abc").WithGroup("git").Info("pushed", "remote", "origin")

			parsed := parseJSONLine(&buf)
			Expect(parsed["run_id"]).To(Equal("abc"))
			group, ok := parsed["git"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(group["remote"]).To(Equal("origin"))
		})

		It("skips handlers that are not enabled", func() {
			var buf bytes.Buffer
			multi := logger.Multi(logger.Nop(), logger.New(logger.WithWriter(&buf)))
			multi.Debug("filtered")
			Expect(buf.String()).To(BeEmpty())
		})
	})
})
