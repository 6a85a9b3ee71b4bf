package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondErrorWithLogs 发送附带处理日志的错误响应
func RespondErrorWithLogs(w http.ResponseWriter, status int, message string, logs []string) {
	if logs == nil {
		logs = []string{}
	}
	RespondJSON(w, status, map[string]any{"error": message, "logs": logs})
}

// RespondEmpty writes a 200 with an empty JSON object, used for CORS preflight.
func RespondEmpty(w http.ResponseWriter) {
	RespondJSON(w, http.StatusOK, struct{}{})
}
