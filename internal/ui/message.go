package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytplay/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgInboxChanged
	MsgPlayerClosed
)

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(snap player.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: snap}
}

// inboxChangedMsg is the constructor for [MsgInboxChanged]
func inboxChangedMsg() Msg {
	return Msg{kind: MsgInboxChanged}
}

// playerClosedMsg is the constructor for [MsgPlayerClosed]
func playerClosedMsg() Msg {
	return Msg{kind: MsgPlayerClosed}
}

// waitForSnapshot blocks until the engine publishes a snapshot or the subscription ends.
func waitForSnapshot(sub *player.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-sub.Updates:
			return snapshotMsg(snap)
		case <-sub.Done:
			return playerClosedMsg()
		}
	}
}

// waitForInbox blocks until the inbox signals a change.
func waitForInbox(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return inboxChangedMsg()
	}
}
