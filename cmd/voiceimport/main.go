package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"hostprompt/internal/config"
	"hostprompt/internal/dataset"
	"hostprompt/internal/generation"
	"hostprompt/internal/llm"
	"hostprompt/internal/observability"
	"hostprompt/internal/prompts"
	"hostprompt/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Optional YAML config file")
		docxPath   = flag.String("docx", "captions.docx", "Path to a .docx file with past captions, one per paragraph block")
		propertyID = flag.String("property", "", "Property that receives the brand voice")
		maxChars   = flag.Int("max-chars", 6000, "Cap on caption text sent to the model")
		dryRun     = flag.Bool("dry-run", false, "Print the result without saving it")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log.Logger = observability.NewLogger(cfg.Env)

	if *propertyID == "" && !*dryRun {
		log.Fatal().Msg("-property is required unless -dry-run is set")
	}

	blocks, err := dataset.ExtractParagraphBlocks(*docxPath)
	if err != nil {
		log.Fatal().Err(err).Msg("parse docx")
	}
	input := dataset.VoiceInput(blocks, *maxChars)
	if input == "" {
		log.Fatal().Str("docx", *docxPath).Msg("no caption text found")
	}

	ctx := context.Background()
	chat, err := llm.NewFromConfig(ctx, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("init language model")
	}

	voice := generation.Analyzer{LLM: chat, Model: cfg.AI.VoiceModel}.Analyze(ctx, input, prompts.VoiceFromCaptions)
	fmt.Printf("%s: %s\n", voice.BrandVoice, voice.BrandVoiceSummary)
	if *dryRun {
		return
	}

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect store")
	}
	defer store.Close()

	if _, err := store.UpdateBrandVoice(ctx, *propertyID, voice.BrandVoice, voice.BrandVoiceSummary); err != nil {
		log.Fatal().Err(err).Str("property_id", *propertyID).Msg("save brand voice")
	}
	log.Info().Int("captions", len(blocks)).Str("property_id", *propertyID).Msg("brand voice saved")
}
