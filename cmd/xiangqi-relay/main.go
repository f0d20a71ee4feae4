package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"xiangqi/internal/config"
	"xiangqi/internal/logging"
	"xiangqi/internal/relay"
	"xiangqi/internal/xiangqi"
)

const usage = `commands:
  r1 c1 r2 c2   move the piece at (r1,c1) to (r2,c2)
  i1 i2         same, with linear indices row*9+col
  undo          take back the last move on both sides
  quit`

func main() {
	configPath := flag.String("config", "", "path to config file")
	host := flag.Bool("host", false, "wait for a peer on the relay address")
	join := flag.String("join", "", "address of the host to join")
	addr := flag.String("addr", "", "listen address for -host (empty to use config)")
	side := flag.String("side", "", "side the host plays: red or black (empty to use config)")
	logLevel := flag.String("log-level", "", "debug, info, warn, error (empty to use config)")
	flag.Parse()

	loader, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg := loader.Config()
	if *logLevel == "" {
		*logLevel = cfg.Log.Level
	}
	logging.Setup(*logLevel, cfg.Log.Format)

	if *host == (*join != "") {
		fmt.Fprintln(os.Stderr, "exactly one of -host or -join is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		conn  net.Conn
		local xiangqi.Side
		role  = relay.Joiner
	)
	if *host {
		role = relay.Host
		if *addr == "" {
			*addr = cfg.Relay.Addr
		}
		if *side == "" {
			*side = cfg.Relay.HostSide
		}
		local, err = parseSide(*side)
		if err != nil {
			log.Fatal().Err(err).Msg("bad side")
		}
		conn, err = accept(ctx, *addr)
		if err != nil {
			log.Fatal().Err(err).Msg("accept failed")
		}
		if err := relay.Greet(conn, local.Opponent()); err != nil {
			log.Fatal().Err(err).Msg("handshake failed")
		}
	} else {
		d := net.Dialer{Timeout: cfg.Relay.DialTimeout}
		conn, err = d.DialContext(ctx, "tcp", *join)
		if err != nil {
			log.Fatal().Err(err).Str("addr", *join).Msg("dial failed")
		}
		local, err = relay.AwaitGreeting(conn)
		if err != nil {
			log.Fatal().Err(err).Msg("handshake failed")
		}
	}
	defer conn.Close()
	log.Info().Str("peer", conn.RemoteAddr().String()).Stringer("side", local).Stringer("role", role).Msg("connected")

	ctrl := xiangqi.NewController()
	board := ctrl.Track().Board()
	fmt.Println(board.Glyphs())
	fmt.Println(usage)

	r := relay.New(ctrl, local, role, conn, relay.WithEventHandler(printEvent))
	runErr := make(chan error, 1)
	go func() {
		runErr <- r.Run(ctx)
		conn.Close()
	}()

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case err := <-runErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("relay stopped")
				os.Exit(1)
			}
			return
		case line, ok := <-lines:
			if !ok {
				lines = nil
				stop()
				continue
			}
			if !handleLine(ctx, r, strings.TrimSpace(line)) {
				stop()
			}
		}
	}
}

// handleLine 返回 false 表示退出
func handleLine(ctx context.Context, r *relay.Relay, line string) bool {
	switch line {
	case "":
		return true
	case "quit", "exit":
		return false
	case "undo":
		if _, ok, err := r.Undo(ctx); err != nil {
			fmt.Println("undo failed:", err)
		} else if !ok {
			fmt.Println("nothing to undo")
		}
		return true
	case "help":
		fmt.Println(usage)
		return true
	}

	from, to, err := parseMove(line)
	if err != nil {
		fmt.Println(err)
		return true
	}
	if _, err := r.Move(ctx, from, to); err != nil {
		// 加入端的请求要等主机答复，拒绝时也在这里报出
		fmt.Println("move rejected:", err)
	}
	return true
}

func printEvent(e relay.Event) {
	fmt.Printf("\n[%s %s] %s -> %s\n", e.Source, e.Kind, e.Step.From, e.Step.To)
	fmt.Println(e.Board.Glyphs())
	fmt.Println(e.Turn)
}

func parseMove(line string) (xiangqi.Coordinate, xiangqi.Coordinate, error) {
	fields := strings.Fields(line)
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return xiangqi.Coordinate{}, xiangqi.Coordinate{}, fmt.Errorf("bad number %q", f)
		}
		nums[i] = n
	}

	var from, to xiangqi.Coordinate
	var err error
	switch len(nums) {
	case 2:
		if from, err = xiangqi.CoordinateFromIndex(nums[0]); err == nil {
			to, err = xiangqi.CoordinateFromIndex(nums[1])
		}
	case 4:
		if from, err = xiangqi.NewCoordinate(nums[0], nums[1]); err == nil {
			to, err = xiangqi.NewCoordinate(nums[2], nums[3])
		}
	default:
		err = fmt.Errorf("want 2 or 4 numbers, got %d", len(nums))
	}
	return from, to, err
}

func parseSide(s string) (xiangqi.Side, error) {
	switch strings.ToLower(s) {
	case "red":
		return xiangqi.Red, nil
	case "black":
		return xiangqi.Black, nil
	}
	return xiangqi.NoSide, fmt.Errorf("unknown side %q", s)
}

// accept 只接受一个对手；ctx 取消时关闭监听
func accept(ctx context.Context, addr string) (net.Conn, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	log.Info().Str("addr", ln.Addr().String()).Msg("waiting for peer")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	return ln.Accept()
}
