package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harry0816web/GrandmaHelper/internal/assistant"
	"github.com/harry0816web/GrandmaHelper/internal/capture"
	"github.com/harry0816web/GrandmaHelper/internal/filter"
	"github.com/harry0816web/GrandmaHelper/internal/pageclass"
	"github.com/harry0816web/GrandmaHelper/internal/session"
	"github.com/harry0816web/GrandmaHelper/internal/summary"
	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive guidance session",
	RunE:  runSession,
}

func buildPipeline(ctx context.Context) (*capture.Pipeline, func(), error) {
	src, err := uitree.NewChromeSource(ctx, cfg.Target.StartURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("start tree source: %w", err)
	}

	pipe := capture.New(
		src,
		summary.New(logger),
		pageclass.New(cfg.Target.ShellLabel, logger),
		filter.New(nil),
		capture.Config{
			TargetPackage: cfg.Target.Package,
			OwnPackage:    cfg.Target.OwnPackage,
			MaxItems:      cfg.Capture.MaxItems,
			PollInterval:  cfg.PollInterval(),
			PollDeadline:  cfg.PollDeadline(),
		},
		logger,
	)
	return pipe, func() { src.Close() }, nil
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	pipe, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := assistant.New(assistant.Options{
		Provider: cfg.Assistant.Provider,
		BaseURL:  cfg.Assistant.BaseURL,
		Model:    cfg.Assistant.Model,
	}, logger)
	if err != nil {
		return err
	}

	overlay := newConsoleOverlay(os.Stdout)
	sess := session.New(client, pipe, overlay, session.Config{
		Sentinels: session.Sentinels{
			Success: cfg.Sentinels.Success,
			Unclear: cfg.Sentinels.Unclear,
			Closed:  cfg.Sentinels.Closed,
		},
		DismissDelay: cfg.DismissDelay(),
		SettleDelay:  cfg.SettleDelay(),
		MaxFailures:  cfg.Session.MaxFailures,
	}, logger)
	go sess.Run(ctx)

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("請輸入您想完成的目標：\n> ")
	rawGoal, _ := reader.ReadString('\n')
	goal := strings.TrimSpace(rawGoal)
	if goal == "" {
		return errors.New("沒有目標就沒有步驟")
	}

	if err := sess.Submit(goal); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			raw, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			lines <- strings.TrimSpace(raw)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			sess.Close()
			<-sess.Done()
			session.NewReporter(os.Stdout, goal).Print(sess, "interrupted by user (Ctrl+C)")
			return nil
		case <-sess.Done():
			session.NewReporter(os.Stdout, goal).Print(sess, outcomeLabel(sess.State()))
			return nil
		case line, ok := <-lines:
			if !ok {
				sess.Close()
				<-sess.Done()
				session.NewReporter(os.Stdout, goal).Print(sess, "input closed")
				return nil
			}
			switch line {
			case "q", "Q":
				sess.Close()
			case "":
				if err := sess.Ack(); errors.Is(err, session.ErrBusy) {
					fmt.Println("⏳ 上一步還在處理中…")
				}
			default:
				if err := sess.Submit(line); errors.Is(err, session.ErrBusy) {
					fmt.Println("⏳ 上一步還在處理中…")
				}
			}
		}
	}
}

func outcomeLabel(st session.State) string {
	switch st {
	case session.StateSuccess:
		return "goal achieved"
	case session.StateClosed:
		return "closed by user"
	case session.StateErrored:
		return "too many failed rounds"
	default:
		return st.String()
	}
}
