package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// Status 响应信封中的状态字段。
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope 统一的响应结构，错误路径上 data 为 null。
type Envelope struct {
	Status Status `json:"status"`
	Data   any    `json:"data"`
}

// StatusOnly 只携带状态的响应结构。
type StatusOnly struct {
	Status Status `json:"status"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondData 发送成功响应
func RespondData(w http.ResponseWriter, data any) {
	RespondJSON(w, http.StatusOK, Envelope{
		Status: Status{Code: http.StatusOK, Message: "Success"},
		Data:   data,
	})
}

// RespondError 发送错误响应，data 固定为 null
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, Envelope{Status: Status{Code: status, Message: message}})
}

// RespondStatus 发送仅包含状态的响应
func RespondStatus(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, StatusOnly{Status: Status{Code: status, Message: message}})
}
