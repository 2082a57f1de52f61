package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger - общий экземпляр логгера приложения
var Logger = logrus.New()

// Init настраивает формат и уровень логирования
func Init(level string) {
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		Logger.Warnf("unknown log level %q, falling back to info", level)
	}
	Logger.SetLevel(lvl)
}

// WithRequest возвращает запись лога с идентификатором запроса
func WithRequest(requestID string) *logrus.Entry {
	if requestID == "" {
		return logrus.NewEntry(Logger)
	}
	return Logger.WithField("request_id", requestID)
}
