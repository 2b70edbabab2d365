package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tickforge/limitbook"
)

const maxLineBytes = 64 * 1024

// session serves one client connection. Commands are parsed and validated
// locally; only well-formed commands reach the book.
type session struct {
	id       string
	conn     net.Conn
	book     *limitbook.OrderBook
	maxDepth uint32
	logger   *zap.Logger
	w        *bufio.Writer
}

func newSession(conn net.Conn, book *limitbook.OrderBook, maxDepth uint32, logger *zap.Logger) *session {
	id := xid.New().String()
	return &session{
		id:       id,
		conn:     conn,
		book:     book,
		maxDepth: maxDepth,
		logger:   logger.With(zap.String("session_id", id), zap.String("remote", conn.RemoteAddr().String())),
		w:        bufio.NewWriter(conn),
	}
}

func (s *session) serve() {
	defer s.conn.Close()
	s.logger.Debug("session opened")

	sc := bufio.NewScanner(s.conn)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		s.handleLine(line)

		if err := s.w.Flush(); err != nil {
			s.logger.Warn("write failed", zap.Error(err))
			return
		}
	}

	if err := sc.Err(); err != nil {
		s.logger.Warn("read failed", zap.Error(err))
	}
	s.logger.Debug("session closed")
}

func (s *session) handleLine(line string) {
	fields := strings.Fields(line)

	switch strings.ToUpper(fields[0]) {
	case "ORDER":
		s.handleOrder(fields[1:])
	case "CANCEL":
		s.handleCancel(fields[1:])
	case "SNAPSHOT":
		s.handleSnapshot(fields[1:])
	default:
		s.reply("ERR unknown command")
	}
}

// handleOrder parses "ORDER <buy|sell> <price> <qty> <client>". Malformed
// arguments are answered with an error line and never reach the book.
func (s *session) handleOrder(args []string) {
	if len(args) != 4 {
		s.reply("ERR usage: ORDER <buy|sell> <price> <qty> <client>")
		return
	}

	var side limitbook.Side
	switch strings.ToLower(args[0]) {
	case "buy":
		side = limitbook.Buy
	case "sell":
		side = limitbook.Sell
	default:
		s.reply("ERR unknown side: " + args[0])
		return
	}

	price, err := decimal.NewFromString(args[1])
	if err != nil {
		s.reply("ERR invalid price: " + args[1])
		return
	}
	if price.IsNegative() {
		s.reply("ERR price must not be negative")
		return
	}

	qty, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		s.reply("ERR invalid qty: " + args[2])
		return
	}
	if qty == 0 {
		s.reply("ERR qty must be positive")
		return
	}

	client := args[3]

	id, trades, err := s.book.PlaceOrder(&limitbook.PlaceOrderCommand{
		ClientID: client,
		Side:     side,
		Price:    price,
		Size:     qty,
	})
	if err != nil && id == 0 {
		// Rejected before admission, nothing happened.
		s.reply("ERR " + err.Error())
		return
	}

	s.reply(fmt.Sprintf("OK %d", id))
	for _, t := range trades {
		s.reply(fmt.Sprintf("TRADE %d %d %s %d", t.BuyOrderID, t.SellOrderID, t.Price.String(), t.Size))
	}

	if err != nil {
		// Trade-log append failed after matching; the trades above stand,
		// only their durable record is missing. Surface it to the client
		// and the operator.
		s.logger.Error("trade log append failed", zap.Uint64("order_id", id), zap.Error(err))
		s.reply("ERR " + err.Error())
	}
}

func (s *session) handleCancel(args []string) {
	if len(args) != 1 {
		s.reply("ERR usage: CANCEL <order_id>")
		return
	}

	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		s.reply("ERR invalid order_id: " + args[0])
		return
	}

	if s.book.CancelOrder(id) {
		s.reply("CANCELLED")
	} else {
		s.reply("NOT_FOUND")
	}
}

// snapshotLevel renders one price level as ["price", "qty"] string pairs so
// no precision is lost in JSON.
type snapshotLevel [2]string

type snapshotReply struct {
	Bids []snapshotLevel `json:"bids"`
	Asks []snapshotLevel `json:"asks"`
}

func (s *session) handleSnapshot(args []string) {
	if len(args) != 1 {
		s.reply("ERR usage: SNAPSHOT <depth>")
		return
	}

	depth64, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || depth64 == 0 {
		s.reply("ERR invalid depth: " + args[0])
		return
	}
	depth := uint32(depth64)
	if depth > s.maxDepth {
		depth = s.maxDepth
	}

	view, err := s.book.Depth(depth)
	if err != nil {
		s.reply("ERR " + err.Error())
		return
	}

	reply := snapshotReply{
		Bids: make([]snapshotLevel, 0, len(view.Bids)),
		Asks: make([]snapshotLevel, 0, len(view.Asks)),
	}
	for _, item := range view.Bids {
		reply.Bids = append(reply.Bids, snapshotLevel{item.Price.String(), strconv.FormatUint(item.Size, 10)})
	}
	for _, item := range view.Asks {
		reply.Asks = append(reply.Asks, snapshotLevel{item.Price.String(), strconv.FormatUint(item.Size, 10)})
	}

	buf, err := json.Marshal(&reply)
	if err != nil {
		s.reply("ERR internal: " + err.Error())
		return
	}
	s.reply(string(buf))
}

func (s *session) reply(line string) {
	s.w.WriteString(line)
	s.w.WriteByte('\n')
}
