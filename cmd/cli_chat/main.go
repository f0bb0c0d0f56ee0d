package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"hr-board/internal/app"
	"hr-board/internal/config"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	youStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AAAAAA"))
	agentStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	imageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7BC67B"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer deps.Close()

	fmt.Println(titleStyle.Render("HR Assistant"))
	fmt.Println("Comandos: /new (nueva conversacion), /messages (mensajes enviados), /insights, /salir")

	for {
		fmt.Print(youStyle.Render("Tu > "))
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text := strings.TrimSpace(line)
		switch text {
		case "":
			continue
		case "/salir", "/exit":
			return
		case "/new":
			ref, err := deps.Chat.NewChat(ctx)
			if err != nil {
				fmt.Println(errStyle.Render("No se pudo iniciar la sesion: " + err.Error()))
				continue
			}
			fmt.Println(titleStyle.Render("Nueva sesion " + ref.SessionID))
			continue
		case "/messages":
			msgs, err := deps.Messages.ListNewestFirst(ctx)
			if err != nil {
				fmt.Println(errStyle.Render(err.Error()))
				continue
			}
			for _, m := range msgs {
				fmt.Printf("#%d %s  %s\n", m.ID, m.CreatedAt.Format("2006-01-02 15:04"), m.Content)
			}
			continue
		case "/insights":
			out, err := deps.Insights.Summarize(ctx)
			if err != nil {
				fmt.Println(errStyle.Render(err.Error()))
				continue
			}
			body := out.Summary
			if len(out.Themes) > 0 {
				body += "\n\nTemas:\n- " + strings.Join(out.Themes, "\n- ")
			}
			if len(out.Suggestions) > 0 {
				body += "\n\nSugerencias:\n- " + strings.Join(out.Suggestions, "\n- ")
			}
			fmt.Println(agentStyle.Render(body))
			continue
		}

		res, err := deps.Chat.HandleTurn(ctx, text)
		if err != nil {
			fmt.Println(errStyle.Render("Error procesando el mensaje: " + err.Error()))
			continue
		}
		fmt.Println(agentStyle.Render(res.Response))
		for _, url := range res.Images {
			fmt.Println(imageStyle.Render("imagen: " + deps.Images.Dir() + "/" + strings.TrimPrefix(url, "/images/")))
		}
	}
}
