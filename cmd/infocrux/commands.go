package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Amritha902/infocruxapp/internal/chat"
	"github.com/Amritha902/infocruxapp/internal/document"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/monitor"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/search"
	"github.com/Amritha902/infocruxapp/internal/server"
	"github.com/Amritha902/infocruxapp/internal/symbol"
	"github.com/Amritha902/infocruxapp/internal/types"
)

func newServeCmd() *cobra.Command {
	var withMonitor bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API and chat websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if withMonitor {
					sched := monitor.NewScheduler(app.Monitor, nil)
					if err := sched.Start(app.Config.Monitor.Schedule); err != nil {
						return err
					}
					defer sched.Stop()
				}

				srv := server.New(server.Deps{
					Store:          app.Store,
					Analyst:        app.Analyst,
					News:           app.News,
					Monitor:        app.Monitor,
					AllowedOrigins: app.Config.Server.AllowedOrigins,
				})
				return srv.ListenAndServe(ctx, server.ServeConfig{
					Addr:         app.Config.Server.Addr,
					ReadTimeout:  time.Duration(app.Config.Server.ReadTimeoutSeconds) * time.Second,
					WriteTimeout: time.Duration(app.Config.Server.WriteTimeoutSeconds) * time.Second,
				})
			})
		},
	}
	cmd.Flags().BoolVar(&withMonitor, "monitor", true, "run the scheduled risk monitor alongside the server")
	return cmd
}

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask about a stock or the market",
		Long: `Ask a question. Mention a symbol such as RELIANCE.NS to ground the answer in
its latest announcement. Without arguments an interactive session starts;
the conversation is kept until you type "exit".`,
		Example: `  infocrux chat "Why did RELIANCE.NS fall today?"
  infocrux chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				svc := chat.NewService(app.Store, app.Analyst)
				if len(args) > 0 {
					history := []types.Message{userMessage(strings.Join(args, " "))}
					resp, err := svc.Respond(ctx, history)
					if err != nil {
						return err
					}
					return printJSON(cmd, resp)
				}
				return interactiveChat(ctx, cmd, svc)
			})
		},
	}
	return cmd
}

func interactiveChat(ctx context.Context, cmd *cobra.Command, svc *chat.Service) error {
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())
	var history []types.Message

	fmt.Fprintln(out, `Infocrux chat. Type "exit" to quit.`)
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		turn := append(history, userMessage(line))
		reply, err := svc.Reply(ctx, turn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		history = append(turn, *reply)

		fmt.Fprintln(out, reply.Content)
		if reply.UI != nil {
			for i, f := range reply.UI.FollowUpSuggestions {
				fmt.Fprintf(out, "  %d. %s\n", i+1, f)
			}
		}
	}
}

func userMessage(content string) types.Message {
	return types.Message{ID: uuid.NewString(), Role: types.RoleUser, Content: content}
}

func newSummarizeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "summarize [text]",
		Short: "Summarize an announcement and extract its entities",
		Example: `  infocrux summarize --file filing.pdf
  infocrux summarize "Reliance Industries announces a partnership with ABC Infra."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if file != "" {
				var err error
				if text, err = document.ReadText(file); err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("announcement text or --file is required")
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				summary, err := app.Analyst.SummarizeAnnouncement(ctx, text)
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the announcement from a text or PDF file")
	return cmd
}

func newExplainCmd() *cobra.Command {
	var (
		score, abnormalReturn, volume float64
		timestamp, extra              string
	)
	cmd := &cobra.Command{
		Use:   "explain <symbol>",
		Short: "Explain a market reaction risk score",
		Long: `Explain the risk score of a symbol's latest announcement. Metrics come from
the stored announcement; flags override them or supply them for symbols
without one.`,
		Example: `  infocrux explain RELIANCE
  infocrux explain WIPRO.NS --score 42 --return -1.2 --volume 2.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				sym := symbol.Normalize(args[0])
				input := types.RiskExplanationInput{Symbol: sym}

				ann, err := app.Store.FindBySymbol(ctx, sym)
				if err != nil {
					return err
				}
				if ann != nil {
					input.Timestamp = ann.Timestamp.UTC().Format(time.RFC3339)
					input.RiskScore = ann.RiskScore
					input.AbnormalReturn = ann.AbnormalReturn
					input.VolumeSpikeRatio = ann.VolumeSpikeRatio
					input.ExplanationContext = strings.Join(ann.Drivers, "; ")
				} else if !cmd.Flags().Changed("score") {
					return fmt.Errorf("no announcement stored for %s; pass --score", sym)
				}

				flags := cmd.Flags()
				if flags.Changed("score") {
					input.RiskScore = score
				}
				if flags.Changed("return") {
					input.AbnormalReturn = abnormalReturn
				}
				if flags.Changed("volume") {
					input.VolumeSpikeRatio = volume
				}
				if flags.Changed("timestamp") || input.Timestamp == "" {
					input.Timestamp = timestamp
				}
				if flags.Changed("context") {
					input.ExplanationContext = extra
				}

				logger.Debug(ctx, "Explaining risk score", "symbol", sym, "score", input.RiskScore, "band", risk.Categorize(input.RiskScore))
				explanation, err := app.Analyst.ExplainRiskScore(ctx, input)
				if err != nil {
					return err
				}
				return printJSON(cmd, explanation)
			})
		},
	}
	cmd.Flags().Float64Var(&score, "score", 0, "risk score 0-100")
	cmd.Flags().Float64Var(&abnormalReturn, "return", 0, "abnormal return in percent")
	cmd.Flags().Float64Var(&volume, "volume", 0, "volume spike ratio")
	cmd.Flags().StringVar(&timestamp, "timestamp", time.Now().UTC().Format(time.RFC3339), "announcement time")
	cmd.Flags().StringVar(&extra, "context", "", "extra context for the explanation")
	return cmd
}

func newMonitorCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Scan the live risk board and alert on abnormal reactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if !watch {
					report, err := app.Monitor.Scan(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, report)
				}

				sched := monitor.NewScheduler(app.Monitor, func(r *monitor.Report) {
					_ = printJSON(cmd, r)
				})
				if err := sched.Start(app.Config.Monitor.Schedule); err != nil {
					return err
				}
				defer sched.Stop()
				sched.RunNow()

				<-ctx.Done()
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep scanning on the configured schedule")
	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search holdings, announcements and news",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				results, err := search.New(app.Store, app.News).Search(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printJSON(cmd, results)
			})
		},
	}
}
