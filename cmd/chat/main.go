package main

import (
	"flag"
	"log"

	"ai-sitechat-be/internal/tui"
	"ai-sitechat-be/pkg/chatclient"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	endpoint := flag.String("endpoint", "http://localhost:3000/api/chat/v1", "chat endpoint url")
	flag.Parse()

	// Buffered so a slow redraw never blocks the streaming goroutine.
	updates := make(chan []chatclient.Message, 64)
	session := chatclient.NewSession(*endpoint, chatclient.WithUpdateHook(func(messages []chatclient.Message) {
		select {
		case updates <- messages:
		default: // drop intermediate snapshots under backpressure
		}
	}))

	model := tui.New(session, updates)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("Error: TUI exited: %v", err)
	}
}
