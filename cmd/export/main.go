package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"hostprompt/internal/config"
	"hostprompt/internal/dataset"
	"hostprompt/internal/observability"
	"hostprompt/internal/storage"
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "Optional YAML config file (DATABASE_URL must point at a real database)")
		email       = flag.String("email", "", "Export the library of this user")
		outputPath  = flag.String("out", "dataset.jsonl", "Where to write the JSONL dataset")
		contentType = flag.String("content-type", "", "Only export this content type")
		minWords    = flag.Int("min-words", 10, "Minimum number of words in a saved item")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log.Logger = observability.NewLogger(cfg.Env)

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required to export datasets")
	}
	if *email == "" {
		log.Fatal().Msg("-email is required")
	}

	ctx := context.Background()
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect store")
	}
	defer store.Close()

	user, err := store.GetUserByEmail(ctx, *email)
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("find user")
	}

	props, err := store.ListProperties(ctx, user.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("list properties")
	}
	byID := make(map[string]storage.Property, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}

	items, err := store.ListContent(ctx, storage.ContentFilter{OwnerID: user.ID})
	if err != nil {
		log.Fatal().Err(err).Msg("list saved content")
	}

	examples := dataset.BuildExamples(items, byID, dataset.Options{
		MinWords:    *minWords,
		ContentType: storage.ContentType(*contentType),
	})
	if len(examples) == 0 {
		log.Fatal().Int("saved", len(items)).Msg("no examples matched the provided filters")
	}

	out, err := os.Create(*outputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("create output")
	}
	defer out.Close()
	if err := dataset.WriteJSONL(out, examples); err != nil {
		log.Fatal().Err(err).Msg("write dataset")
	}
	log.Info().Int("examples", len(examples)).Str("out", *outputPath).Msg("dataset exported")
}
