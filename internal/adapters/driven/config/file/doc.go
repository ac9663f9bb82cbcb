// Package file keeps reportrag's user-editable configuration on disk:
// config.toml (ConfigStore) and the year-inference prompt templates
// (PromptStore), both under ~/.reportrag unless --config-dir says otherwise.
package file
