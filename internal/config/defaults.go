// Package config provides configuration loading and defaults for impactlog.
package config

import "github.com/blackwell-systems/impactlog/internal/weekly"

// DefaultConfigDir is the default location for impactlog configuration.
const DefaultConfigDir = "~/.config/impactlog"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "impactlog.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultReviewDays is the look-back window of the weekly review.
const DefaultReviewDays = 7

// DefaultLogLevel is the zerolog level used when none is configured.
const DefaultLogLevel = "info"

// EnvPrefix is the prefix of environment variable overrides,
// e.g. IMPACTLOG_DB_PATH.
const EnvPrefix = "IMPACTLOG"

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultReview is the Stop/Start/Continue and level-transition text shown
// in every weekly review.
var DefaultReview = weekly.Template{
	Decisions: weekly.Decisions{
		Stop:     "Generic posts without a direct call to action.",
		Start:    "Targeted outreach series on 15 ICP accounts.",
		Continue: "Editorial format plus short case studies.",
	},
	Recommendations: weekly.Recommendations{
		CToB: "Convert impressions into DMs with 10 ICP contacts.",
		BToA: "Turn positive replies into qualified meetings.",
	},
}

// defaultValues maps every viper key to its default. Keys also define
// which IMPACTLOG_* variables are recognized.
func defaultValues() map[string]any {
	return map[string]any{
		"db_path":                       DefaultConfigDir + "/" + DefaultDBName,
		"catalog_file":                  "",
		"review_days":                   DefaultReviewDays,
		"output.color":                  DefaultOutput.Color,
		"output.width":                  DefaultOutput.Width,
		"log.level":                     DefaultLogLevel,
		"review.decisions.stop":         DefaultReview.Decisions.Stop,
		"review.decisions.start":        DefaultReview.Decisions.Start,
		"review.decisions.continue":     DefaultReview.Decisions.Continue,
		"review.recommendations.c_to_b": DefaultReview.Recommendations.CToB,
		"review.recommendations.b_to_a": DefaultReview.Recommendations.BToA,
	}
}
