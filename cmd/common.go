/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/valpere/knyhotran/internal/artifact"
	"github.com/valpere/knyhotran/internal/chapter"
	"github.com/valpere/knyhotran/internal/config"
	"github.com/valpere/knyhotran/internal/pipeline"
	"github.com/valpere/knyhotran/internal/render"
	"github.com/valpere/knyhotran/internal/splitter"
	"github.com/valpere/knyhotran/internal/store"
	"github.com/valpere/knyhotran/internal/translator"
	"github.com/valpere/knyhotran/internal/validator"
)

// buildProvider constructs the translation backend named in cfg.
func buildProvider(cfg config.Config) (translator.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return translator.NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case "gemini":
		return translator.NewGeminiProvider(cfg.GeminiKey, cfg.GeminiBaseURL, cfg.GeminiModel), nil
	case "ollama":
		return translator.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel), nil
	case "google":
		return translator.NewGoogleProvider(cfg.GoogleCredentials, cfg.SourceLang, cfg.TargetLang), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// buildRunner wires the pipeline for one configuration. db may be nil when
// caching is disabled.
func buildRunner(cfg config.Config, prov translator.Provider, db *store.Store, log *slog.Logger) *pipeline.Runner {
	var memory pipeline.Memory
	if db != nil {
		memory = db
	}

	trans := pipeline.NewTranslator(prov, memory, pipeline.Options{
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
		FloorChars:   cfg.FloorChars,
		SystemPrompt: cfg.SystemPrompt,
		TargetLang:   cfg.TargetLang,
		RateLimit:    cfg.RateLimit,
	}, log)

	return pipeline.NewRunner(
		splitter.New(cfg.ChunkLines),
		trans,
		validator.New(),
		artifact.NewWriter(cfg.DebugDir),
		cfg.Workers,
		log,
	)
}

// translateChapterFile runs the whole pipeline for one chapter JSON file
// and writes the rendered HTML page. It returns the output path.
func translateChapterFile(ctx context.Context, cfg config.Config, runner *pipeline.Runner, db *store.Store, providerName, path string) (string, error) {
	rec, err := chapter.Load(path)
	if err != nil {
		return "", err
	}

	doc := rec.Document()
	fmt.Fprintf(os.Stderr, "Translating %s: %q chapter %d (%d lines, %d chars)\n",
		path, rec.Book, rec.Index, doc.TotalLines, doc.TotalChars)

	translated, err := runner.TranslateDocument(ctx, doc, rec.Book, rec.Index)
	if err != nil {
		if db != nil {
			_ = db.SaveRun(ctx, rec.Book, rec.Index, providerName, "failed", err.Error())
		}
		return "", err
	}

	outPath, err := render.New(cfg.TemplateDir).WriteFile(cfg.OutputDir, rec, translated)
	if err != nil {
		return "", err
	}

	if db != nil {
		_ = db.SaveRun(ctx, rec.Book, rec.Index, providerName, "success", outPath)
	}
	return outPath, nil
}

// newLogger builds the slog logger shared by the pipeline components.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
