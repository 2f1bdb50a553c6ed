// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-extract/internal/log"
	"github.com/pdiddy/pdf-extract/internal/secrets"
	"github.com/pdiddy/pdf-extract/internal/store"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// setDefaults registers every configuration key with its default so that
// environment variables are honoured for keys absent from the config file.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.max_retries", d.HTTP.MaxRetries)

	v.SetDefault("pdftotext.binary", d.Pdftotext.Binary)
	v.SetDefault("pdftotext.encoding", d.Pdftotext.Encoding)
	v.SetDefault("pdftotext.eol", d.Pdftotext.EOL)
	v.SetDefault("pdftotext.layout", d.Pdftotext.Layout)
	v.SetDefault("pdftotext.no_page_breaks", d.Pdftotext.NoPageBreaks)
	v.SetDefault("pdftotext.timeout", d.Pdftotext.Timeout)
	v.SetDefault("pdftotext.image", d.Pdftotext.Image)

	v.SetDefault("marker.binary", d.Marker.Binary)
	v.SetDefault("marker.output_format", d.Marker.OutputFormat)
	v.SetDefault("marker.paginate", d.Marker.Paginate)
	v.SetDefault("marker.use_llm", d.Marker.UseLLM)
	v.SetDefault("marker.disable_image_extraction", d.Marker.DisableImageExtraction)
	v.SetDefault("marker.llm_service", d.Marker.LLMService)
	v.SetDefault("marker.openai_base_url", d.Marker.OpenAIBaseURL)
	v.SetDefault("marker.openai_api_key", d.Marker.OpenAIAPIKey)
	v.SetDefault("marker.openai_model", d.Marker.OpenAIModel)
	v.SetDefault("marker.timeout", d.Marker.Timeout)
	v.SetDefault("marker.image", d.Marker.Image)

	v.SetDefault("headings.page_markers", d.Headings.PageMarkers)

	v.SetDefault("conversion.backend", string(d.Conversion.Backend))
	v.SetDefault("conversion.output_dir", d.Conversion.OutputDir)
	v.SetDefault("conversion.force", d.Conversion.Force)
	v.SetDefault("conversion.workers", d.Conversion.Workers)
	v.SetDefault("conversion.frontmatter", d.Conversion.Frontmatter)

	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.max_results", d.Store.MaxResults)
}

// loadConfig decodes the merged configuration (defaults, config file,
// environment, bound flags) and fills credentials from secrets.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	secrets.Apply(&cfg, loadedSecrets)

	if !cfg.Conversion.Backend.Valid() {
		return types.Config{}, fmt.Errorf("unknown backend %q (want one of %v)", cfg.Conversion.Backend, types.Backends)
	}
	return cfg, nil
}

// bindFlag binds a command flag to a configuration key.
func bindFlag(cmd *cobra.Command, key, flag string) {
	var f *pflag.Flag
	if f = cmd.Flags().Lookup(flag); f == nil {
		panic(fmt.Sprintf("binding flag %s: not defined on %s", flag, cmd.Name()))
	}
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

// closeStore closes st, logging a failure to flush the database.
func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		log.Error("closing store", "dir", st.Dir(), "error", err)
	}
}
