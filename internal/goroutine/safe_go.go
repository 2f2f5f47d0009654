package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
)

// SafeGo запускает горутину с обработкой panic.
func SafeGo(fn func()) {
	go func() {
		defer recoverPanic("")
		fn()
	}()
}

// SafeGoWithContext запускает именованную фоновую задачу с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer recoverPanic(name)
		fn(ctx)
	}()
}

func recoverPanic(name string) {
	if r := recover(); r != nil {
		logger.Log.WithFields(logrus.Fields{
			"task":  name,
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("panic в горутине")
	}
}
