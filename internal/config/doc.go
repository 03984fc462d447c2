// Package config loads the outreach process configuration from .env files
// and the environment.
//
// Every reusable package owns its own Config struct with env tags; this
// package only embeds them and adds the process-level switches (store
// driver, mail provider, follow-up mode).
package config
