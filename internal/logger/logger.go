// README: Structured JSON logging over the stdlib logger.
package logger

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

func Info(message string, fields map[string]interface{}) {
	logJSON("info", message, fields)
}

func Warn(message string, fields map[string]interface{}) {
	logJSON("warn", message, fields)
}

func Error(message string, fields map[string]interface{}) {
	logJSON("error", message, fields)
}

func Fatal(message string, fields map[string]interface{}) {
	logJSON("fatal", message, fields)
	os.Exit(1)
}

// Security logs a security event. Pattern ids and offending input stay
// server-side; nothing logged here is ever echoed to a client.
func Security(eventType string, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["event_type"] = eventType
	logJSON("warn", "security event: "+eventType, fields)
}

func logJSON(level string, message string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"level":     level,
		"message":   message,
		"service":   "atlas",
	}
	for k, v := range fields {
		entry[k] = v
	}
	b, _ := json.Marshal(entry)
	log.Println(string(b))
}
