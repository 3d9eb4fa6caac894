// Command widget runs the chat widget in a terminal against the configured
// chat API, or against the placeholder gateway when none is configured.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"chatbot-widget/internal/bootstrap"
	"chatbot-widget/internal/config"
	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/render"
	"chatbot-widget/internal/repository/contract"
	"chatbot-widget/internal/service"
	"chatbot-widget/internal/widget"
)

const usage = `commands:
  /open /close /min /max /esc    window controls
  /slot N                        choose slot N
  /date YYYY-MM-DD               pick an appointment date
  /yes /no                       confirm or reject the chosen slot
  /logs [LEVEL]                  show recent log entries
  /storage                       dump persisted widget state
  /quit                          exit
anything else is sent as a message`

func main() {
	cfg := config.Load()

	// The terminal is the UI, so logs only go to the file.
	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer sysLogger.Sync()

	deps, cleanup, err := bootstrap.NewWidgetDeps(cfg, sysLogger)
	defer cleanup()
	if err != nil {
		log.Fatalf("Unable to set up widget: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := widget.NewHost(deps)
	w, err := host.Init(ctx, widget.Options{
		BotName:    cfg.App.BotName,
		Position:   entity.Position(cfg.App.Position),
		StorageKey: cfg.App.StorageKey,
	})
	if err != nil {
		log.Fatalf("Unable to start widget: %v", err)
	}
	defer host.Destroy()

	term := render.NewTerminal(os.Stdout, time.Local)
	unsubscribe, err := w.Subscribe(term.Render)
	if err != nil {
		log.Fatalf("Unable to subscribe renderer: %v", err)
	}
	defer unsubscribe()

	fmt.Println(usage)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := dispatch(ctx, w, deps.Storage, sysLogger, line); quit {
				return
			}
		}
	}
}

func dispatch(ctx context.Context, w *widget.Widget, storage contract.StorageRepository, sysLogger logger.ILogger, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		w.Send(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch cmd {
	case "/quit":
		return true
	case "/open":
		if w.Snapshot().State == entity.ChatStateClosed {
			w.Toggle(ctx)
		}
	case "/close":
		w.Close(ctx)
	case "/min":
		w.Minimize()
	case "/max":
		w.Maximize()
	case "/esc":
		w.HandleKey(ctx, constant.KeyEscape)
	case "/slot":
		err = selectSlot(ctx, w, arg)
	case "/date":
		var date time.Time
		if date, err = time.ParseInLocation("2006-01-02", arg, time.Local); err == nil {
			err = w.PickDate(ctx, date)
		}
	case "/yes":
		err = w.Confirm(ctx, true)
	case "/no":
		err = w.Confirm(ctx, false)
	case "/logs":
		printLogs(sysLogger, strings.ToUpper(arg))
	case "/storage":
		printStorage(ctx, os.Stdout, w, storage)
	default:
		fmt.Println(usage)
	}

	if err != nil {
		fmt.Printf("! %v\n", err)
	}
	return false
}

func selectSlot(ctx context.Context, w *widget.Widget, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("slot number expected, got %q", arg)
	}
	for _, group := range w.Snapshot().SlotGroups() {
		for _, s := range group.Slots {
			if s.Index == n {
				return w.SelectSlot(ctx, s.Slot.Id)
			}
		}
	}
	return service.ErrUnknownSlot
}

func printLogs(sysLogger logger.ILogger, level string) {
	entries, err := sysLogger.GetLogs(level, 20, 0)
	if err != nil {
		fmt.Printf("! %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("no log entries")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s %-5s [%s] %s\n", e.Timestamp, e.Level, e.Module, e.Message)
	}
}

// printStorage lists every stored key when the backend can enumerate them,
// otherwise the keys the widget is known to use.
func printStorage(ctx context.Context, out io.Writer, w *widget.Widget, storage contract.StorageRepository) {
	var keys []string
	if lister, ok := storage.(interface{ Keys() []string }); ok {
		keys = lister.Keys()
	} else {
		keys = []string{constant.StorageKeySessionID, constant.StorageKeyBookingState, w.Options().StorageKey}
		if id := w.Snapshot().SessionId; id != "" {
			keys = append(keys, constant.StorageKeyLastActivityPrefix+id)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, found, err := storage.Get(ctx, key)
		switch {
		case err != nil:
			fmt.Fprintf(out, "%s: ! %v\n", key, err)
		case !found:
			fmt.Fprintf(out, "%s: (absent)\n", key)
		default:
			if len(value) > 120 {
				value = value[:117] + "..."
			}
			fmt.Fprintf(out, "%s: %s\n", key, value)
		}
	}
}
