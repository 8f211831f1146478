package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samber/mo"
	"github.com/siherrmann/finrag/core/agent"
	"github.com/siherrmann/finrag/model"
	"github.com/spf13/cobra"
)

var (
	flagSize     int
	flagMinScore float64
	flagSession  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from the indexed articles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := askOverrides(cmd)
		if err != nil {
			return err
		}
		config, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(config)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		f, err := openFinrag(ctx, config, logger, setup{withGenerator: true, withPipeline: true, withMessages: true})
		if err != nil {
			return err
		}
		defer f.Close()

		result := f.Ask(agent.WithSession(ctx, flagSession), strings.Join(args, " "), overrides)
		printResult(cmd.OutOrStdout(), result)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively, type quit or exit to stop",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := askOverrides(cmd)
		if err != nil {
			return err
		}
		config, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(config)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		f, err := openFinrag(ctx, config, logger, setup{withGenerator: true, withPipeline: true, withMessages: true})
		if err != nil {
			return err
		}
		defer f.Close()

		return chatLoop(agent.WithSession(ctx, flagSession), cmd.InOrStdin(), cmd.OutOrStdout(), func(ctx context.Context, question string) *model.AskResult {
			return f.Ask(ctx, question, overrides)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{askCmd, chatCmd} {
		c.Flags().IntVar(&flagSize, "size", 0, "number of articles to retrieve (default from config)")
		c.Flags().Float64Var(&flagMinScore, "min-score", 0, "minimum relevance score (default from config)")
		c.Flags().StringVar(&flagSession, "session", agent.DefaultSession, "message log session id")
	}
}

// askOverrides only sets the flags the user passed.
func askOverrides(cmd *cobra.Command) (model.AskOverrides, error) {
	overrides := model.AskOverrides{}
	if cmd.Flags().Changed("size") {
		if flagSize <= 0 {
			return overrides, fmt.Errorf("--size must be positive, got %d", flagSize)
		}
		overrides.Size = mo.Some(flagSize)
	}
	if cmd.Flags().Changed("min-score") {
		overrides.MinScore = mo.Some(flagMinScore)
	}
	return overrides, nil
}

func chatLoop(ctx context.Context, in io.Reader, out io.Writer, ask func(ctx context.Context, question string) *model.AskResult) error {
	fmt.Fprintln(out, titleStyle.Render("Finance RAG Agent - Ask questions about indexed financial articles"))
	fmt.Fprintln(out, dimStyle.Render("Type 'quit' or 'exit' to stop"))
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("You: "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "quit", "exit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "":
			continue
		}

		fmt.Fprintln(out, dimStyle.Render("\nThinking...\n"))
		result := ask(ctx, question)
		fmt.Fprintf(out, "%s %s\n\n", answerLabelStyle.Render("Agent:"), result.Answer)
		if result.ArticlesFound {
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("(Based on %d articles)", result.NumArticles)))
			fmt.Fprintln(out)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func printResult(out io.Writer, result *model.AskResult) {
	fmt.Fprintf(out, "%s %s\n", promptStyle.Render("Q:"), result.Question)
	fmt.Fprintf(out, "%s %s\n", answerLabelStyle.Render("A:"), result.Answer)
	if !result.ArticlesFound {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Found %d relevant articles:", result.NumArticles)))
	for i, article := range result.Articles {
		fmt.Fprintf(out, "  %d. %s (%s) %s\n", i+1, article.Title, article.Source, dimStyle.Render(fmt.Sprintf("%.2f", article.Score)))
	}
}
