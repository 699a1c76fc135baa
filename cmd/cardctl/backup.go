package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardquiz/internal/config"
	"cardquiz/internal/service"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export users, the quiz catalog and recorded sessions to JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
		}

		cfg := config.Load()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		log.Printf("Exporting database to: %s", outputPath)
		if _, err := service.NewBackupService(db).Export(cmd.Context(), file); err != nil {
			return err
		}

		if info, err := file.Stat(); err == nil {
			log.Printf("Export complete! File size: %.2f MB", float64(info.Size())/1024/1024)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath, _ := cmd.Flags().GetString("input")
		clearData, _ := cmd.Flags().GetBool("clear")
		assumeYes, _ := cmd.Flags().GetBool("yes")

		file, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()

		cfg := config.Load()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		backup := service.NewBackupService(db)
		if clearData {
			if !assumeYes && !confirm(cmd, "WARNING: This will delete all existing data. Type 'yes' to confirm: ") {
				log.Println("Import cancelled")
				return nil
			}
			log.Println("Clearing existing data...")
			if err := backup.Clear(cmd.Context()); err != nil {
				return err
			}
		}

		log.Printf("Importing database from: %s", inputPath)
		if err := backup.Import(cmd.Context(), file); err != nil {
			return err
		}
		log.Println("Import complete!")
		return nil
	},
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importCmd.Flags().StringP("input", "i", "", "Input file path")
	importCmd.Flags().Bool("clear", false, "Clear existing data before import (destructive)")
	importCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	importCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(exportCmd, importCmd)
}
