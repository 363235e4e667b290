package config

// DefaultModelFilter selects DeepSeek models from the server's listing.
const DefaultModelFilter = "deepseek"

func DefaultConfig() *Config {
	return &Config{
		DataDirectory: "~/.local/share/deepchat",
		Ollama: OllamaConfig{
			ModelFilter: DefaultModelFilter,
		},
		Chat: ChatConfig{
			KeepPartialOnError: true,
		},
	}
}

func GenerateConfigTemplate() string {
	return `# deepchat configuration
# Location: ~/.config/deepchat/config.toml
# This file uses TOML format: https://toml.io

# Directory holding chat_histories/ and debug.log
data_directory = "~/.local/share/deepchat"

# Write a structured debug log to <data_directory>/debug.log
debug = false

[ollama]
# Ollama server URL (empty: OLLAMA_HOST, else http://127.0.0.1:11434)
host = ""

# The last listed model whose name contains this text is used
model_filter = "deepseek"

[chat]
# Keep the partially streamed answer when a stream fails, followed by the error
keep_partial_on_error = true
`
}
