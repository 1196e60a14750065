package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"schooladmin/internal/notification"
)

var (
	successColor = color.New(color.FgGreen)
	mutedColor   = color.New(color.FgHiBlack)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

func printSuccess(format string, args ...any) {
	successColor.Printf("✓ "+format+"\n", args...)
}

func printNotification(n notification.Notification) {
	marker := color.New(color.FgYellow, color.Bold).Sprint("●")
	if n.Read {
		marker = mutedColor.Sprint("○")
	}

	titleColor := color.New(color.FgGreen)
	if n.Type == notification.TypePayment {
		titleColor = color.New(color.FgMagenta)
	}

	fmt.Printf("%s %s  %s\n", marker, titleColor.Sprint(n.Title), mutedColor.Sprint(n.Timestamp.Local().Format(time.DateTime)))
	fmt.Printf("  %s\n", n.Message)
	mutedColor.Printf("  id: %s\n", n.ID)
}

func printConnection(state notification.ConnectionState) {
	switch state {
	case notification.Connected:
		color.Green("live updates: connected")
	case notification.Exhausted:
		color.Red("live updates: unavailable (retries exhausted)")
	default:
		color.Yellow("live updates: disconnected")
	}
}

func printSnapshot(snap notification.Snapshot) {
	printConnection(snap.ConnectionState)
	headerColor.Printf("%d unread of %d\n", snap.UnreadCount, len(snap.Notifications))
	fmt.Println(strings.Repeat("-", 50))
	if len(snap.Notifications) == 0 {
		mutedColor.Println("No notifications.")
		return
	}
	for _, n := range snap.Notifications {
		printNotification(n)
	}
}
