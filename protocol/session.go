package protocol

import "sanhaco/config"

// opHandler serves one request. req[0] is the opcode byte. Returning an
// ErrorCode sends it as the reply; done ends the session.
type opHandler func(s *Session, req []byte) (done bool, err error)

// Handlers indexed by the opcode's high nibble.
var opHandlers = [16]opHandler{
	OpRead >> 4:   (*Session).handleRead,
	OpWrite >> 4:  (*Session).handleWrite,
	OpFinish >> 4: (*Session).handleFinish,
}

// Session is the firmware side of configuration mode. It edits the record
// in place and persists it on FINISH.
type Session struct {
	link  Link
	rec   *config.Record
	store *config.Store
	out   ScratchOutput

	// Timeout bounds the wait for the body of a request, in link clock ticks.
	Timeout uint32
	// Kick is called once per poll. May be nil.
	Kick func()
	// Wait is called by Serve after a poll that found nothing to read.
	// May be nil.
	Wait func()
}

// NewSession creates a session over link editing rec. store may be nil, in
// which case FINISH only acknowledges.
func NewSession(link Link, rec *config.Record, store *config.Store, timeout uint32) *Session {
	return &Session{
		link:    link,
		rec:     rec,
		store:   store,
		Timeout: timeout,
	}
}

// Begin acknowledges the handshake that started configuration mode.
func (s *Session) Begin() {
	s.link.Send([]byte{AckByte})
}

// Serve acknowledges the handshake and processes requests until FINISH.
// The caller is expected to restart the board afterwards.
func (s *Session) Serve() error {
	s.Begin()
	for {
		idle := s.link.Available() == 0
		done, err := s.Poll()
		if done || err != nil {
			return err
		}
		if idle && s.Wait != nil {
			s.Wait()
		}
	}
}

// Poll processes at most one request. It returns immediately when no
// length byte is waiting.
func (s *Session) Poll() (done bool, err error) {
	if s.Kick != nil {
		s.Kick()
	}

	var size [1]byte
	if !s.link.Receive(size[:]) {
		return false, nil
	}
	n := int(size[0])
	if n > MaxRequestLength {
		s.replyError(ErrTooLong)
		return false, nil
	}
	if n == 0 {
		s.replyError(ErrInvalidCommand)
		return false, nil
	}

	var buf [MaxRequestLength]byte
	if !s.link.ReceiveBlocking(buf[:n], s.Timeout) {
		s.replyError(ErrRxTimeout)
		return false, nil
	}
	return s.Handle(buf[:n])
}

// Handle serves one complete request body and sends the reply.
func (s *Session) Handle(req []byte) (done bool, err error) {
	h := opHandlers[req[0]>>4]
	if h == nil {
		s.replyError(ErrInvalidCommand)
		return false, nil
	}
	done, err = h(s, req)
	if code, ok := err.(ErrorCode); ok {
		s.replyError(code)
		return false, nil
	}
	return done, err
}

func (s *Session) handleRead(req []byte) (bool, error) {
	v, err := s.rec.Get(config.ParamID(req[0] & IDMask))
	if err != nil {
		return false, ErrInvalidParam
	}
	s.out.Reset()
	s.out.Output([]byte{AckByte})
	PutInt16(&s.out, v)
	s.link.Send(s.out.Result())
	return false, nil
}

func (s *Session) handleWrite(req []byte) (bool, error) {
	if len(req) < writeLength {
		return false, ErrBadLength
	}
	switch s.rec.Set(config.ParamID(req[0]&IDMask), GetInt16(req[1:])) {
	case nil:
	case config.ErrInvalidParam:
		return false, ErrInvalidParam
	default:
		return false, ErrInvalidValue
	}
	s.ack()
	return false, nil
}

func (s *Session) handleFinish(req []byte) (bool, error) {
	if req[0] != OpFinish {
		return false, ErrInvalidCommand
	}
	if s.store != nil {
		if err := s.store.Save(*s.rec); err != nil {
			return true, err
		}
	}
	s.ack()
	return true, nil
}

func (s *Session) ack() {
	s.link.Send([]byte{AckByte})
}

func (s *Session) replyError(code ErrorCode) {
	s.link.Send([]byte{byte(code)})
}
