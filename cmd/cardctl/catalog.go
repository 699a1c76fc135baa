package main

import (
	"fmt"
	"log"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cardquiz/internal/config"
	"cardquiz/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed [dir]",
	Short: "Load quiz files into the catalog, replacing quizzes with the same id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		dir := cfg.CatalogSeedPath
		if len(args) == 1 {
			dir = args[0]
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := service.NewCatalogService(db, nil).SeedFromDir(cmd.Context(), dir)
		if err != nil {
			return err
		}
		log.Printf("Seeded %d questions from %s", n, dir)
		return nil
	},
}

var quizzesCmd = &cobra.Command{
	Use:   "quizzes",
	Short: "List the active quizzes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		quizzes, err := service.NewCatalogService(db, nil).ListQuizzes(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "QUIZ\tLEVELS\tQUESTIONS\tCATEGORIES")
		for _, q := range quizzes {
			fmt.Fprintf(w, "%s\t%v\t%d\t%v\n", q.QuizID, q.Levels, q.QuestionCount, q.Categories)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd, quizzesCmd)
}
