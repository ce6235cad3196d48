package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/client"
	"github.com/mcdev12/makeitmeme/go/internal/session"
)

const help = `commands:
  create [name] [rounds] [timer] [mode] [image_type]
  join <room> [name]
  start | next | force
  text <top> [| <bottom>]   submit   reroll
  like | meh | dislike      super | unsuper
  rejoin | decline | leave
  status | help | quit`

type repl struct {
	client      *client.Client
	defaultName string
}

func (r *repl) run(ctx context.Context, in *bufio.Scanner, quit context.CancelFunc) {
	fmt.Fprintln(os.Stderr, help)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			quit()
			return
		}
		r.exec(ctx, line)
	}
	if err := in.Err(); err != nil {
		log.Error().Err(err).Msg("failed to read stdin")
	}
}

func (r *repl) exec(ctx context.Context, line string) {
	cmd, rest, _ := strings.Cut(line, " ")
	args := strings.Fields(rest)

	switch cmd {
	case "help":
		fmt.Fprintln(os.Stderr, help)

	case "create":
		name := r.defaultName
		if len(args) > 0 {
			name = args[0]
		}
		opts := session.CreateOptions{
			NumRounds:     intArg(args, 1),
			TimerDuration: intArg(args, 2),
			Mode:          strArg(args, 3),
			ImageType:     strArg(args, 4),
		}
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error {
			return s.CreateGame(ctx, name, opts)
		})

	case "join":
		room := strArg(args, 0)
		name := r.defaultName
		if len(args) > 1 {
			name = strings.Join(args[1:], " ")
		}
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error {
			return s.JoinGame(ctx, name, room)
		})

	case "start":
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.StartGame(ctx) })
	case "next":
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.AdvanceRound(ctx) })
	case "force":
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.ForceAdvance(ctx) })

	case "text":
		top, bottom, _ := strings.Cut(rest, "|")
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error {
			return s.SetText(strings.TrimSpace(top), strings.TrimSpace(bottom))
		})
	case "submit":
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.Submit(ctx) })
	case "reroll":
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.RequestReroll(ctx) })

	case "like", "meh", "dislike":
		value := map[string]int{"like": 1, "meh": 0, "dislike": -1}[cmd]
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.Vote(ctx, value) })
	case "super":
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.ArmSuperVote() })
	case "unsuper":
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.DisarmSuperVote() })

	case "rejoin":
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.AcceptRejoin(ctx) })
	case "decline":
		act(ctx, r.client, cmd, func(ctx context.Context, s *session.Session) error { return s.DeclineRejoin(ctx) })
	case "leave":
		if err := r.client.Leave(ctx); err != nil {
			log.Debug().Err(err).Str("command", cmd).Msg("command rejected")
		}

	case "status":
		st, err := r.client.Status(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to read status")
			return
		}
		log.Info().Interface("status", st).Msg("status")

	default:
		log.Warn().Str("command", cmd).Msg("unknown command, type help")
	}
}

func strArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func intArg(args []string, i int) int {
	n, err := strconv.Atoi(strArg(args, i))
	if err != nil {
		return 0
	}
	return n
}
