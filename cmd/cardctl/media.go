package main

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cardquiz/internal/config"
	"cardquiz/internal/media"
	"cardquiz/internal/models"
	"cardquiz/internal/service"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage quiz media",
}

var mediaSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload every manifest entry from MEDIA_DIR to the MinIO bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.MinioEndpoint == "" {
			return errors.New("MINIO_ENDPOINT is not set")
		}

		manifest, err := media.LoadManifest(cfg.MediaManifestPath)
		if err != nil {
			return err
		}

		storage, err := media.NewObjectStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := storage.EnsureBucket(ctx); err != nil {
			return err
		}

		uploaded := 0
		for _, name := range manifest.Names() {
			objectName, _ := manifest.Lookup(name)
			if err := uploadFile(cmd, storage, filepath.Join(cfg.MediaDir, objectName), objectName); err != nil {
				log.Printf("Skipping %s: %v", name, err)
				continue
			}
			uploaded++
		}
		log.Printf("Uploaded %d of %d media files to %s", uploaded, len(manifest), cfg.MinioBucket)
		return nil
	},
}

var mediaSpeakCmd = &cobra.Command{
	Use:   "speak",
	Short: "Generate prompt audio for audio questions and add it to the manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint, _ := cmd.Flags().GetString("endpoint")
		language, _ := cmd.Flags().GetString("lang")

		cfg := config.Load()
		manifest, err := media.LoadManifest(cfg.MediaManifestPath)
		if err != nil {
			return err
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		questions, err := service.NewCatalogService(db, nil).AllQuestions(cmd.Context())
		if err != nil {
			return err
		}

		speech := media.NewSpeechGenerator(cfg.MediaDir, endpoint, language)
		added := 0
		for _, q := range questions {
			if q.Kind != models.QuestionAudio {
				continue
			}
			name := q.MediaRef
			if name == "" {
				name = q.Prompt
			}
			if _, ok := manifest.Lookup(name); ok {
				continue
			}

			objectPath, err := speech.Generate(cmd.Context(), name, q.Prompt)
			if err != nil {
				log.Printf("Skipping %s: %v", name, err)
				continue
			}
			manifest[name] = objectPath
			added++
		}

		if added == 0 {
			log.Println("Manifest already covers every audio question")
			return nil
		}
		if err := manifest.Save(cfg.MediaManifestPath); err != nil {
			return err
		}
		log.Printf("Added %d audio entries to %s", added, cfg.MediaManifestPath)
		return nil
	},
}

func uploadFile(cmd *cobra.Command, storage *media.ObjectStorage, path, objectName string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := storage.Upload(cmd.Context(), objectName, file, info.Size(), contentType); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}

func init() {
	mediaSpeakCmd.Flags().String("endpoint", media.DefaultSpeechEndpoint, "Text-to-speech endpoint")
	mediaSpeakCmd.Flags().String("lang", "en", "Spoken language")

	mediaCmd.AddCommand(mediaSyncCmd, mediaSpeakCmd)
	rootCmd.AddCommand(mediaCmd)
}
