package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/core"
	"github.com/olehk/security-guard/internal/triage"
)

// PostfixFilter implements a Postfix content filter. Postfix hands each
// message to us over SMTP; we analyze it, stamp threat headers on it and
// reinject it on the postfix reinjection port.
type PostfixFilter struct {
	service        *triage.Service
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	blockDanger    bool
	levelHeader    string
	scoreHeader    string
	reasonHeader   string
	patternsHeader string
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	subjectPrefix  string
	modifySubject  bool
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *triage.Service,
	logger *zap.Logger,
	listenAddr string,
	blockDanger bool,
	levelHeader string,
	scoreHeader string,
	reasonHeader string,
	patternsHeader string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *PostfixFilter {
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[**THREAT**] "
	}

	return &PostfixFilter{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		blockDanger:    blockDanger,
		levelHeader:    levelHeader,
		scoreHeader:    scoreHeader,
		reasonHeader:   reasonHeader,
		patternsHeader: patternsHeader,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		subjectPrefix:  subjectPrefix,
		modifySubject:  modifySubject,
	}
}

// Start starts the SMTP listener
func (f *PostfixFilter) Start(ctx context.Context) error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP listener
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail analyzes a single email. Used for testing and direct calls.
func (f *PostfixFilter) ProcessEmail(ctx context.Context, signal *core.ThreatSignal) (*core.SecurityVerdict, error) {
	return f.service.Triage(ctx, signal), nil
}

// sendToPostfix reinjects the processed email into Postfix
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The email has already been handed off at this point
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not used by the filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data receives the message, analyzes it and reinjects it with threat headers
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	textContent, err := extractTextFromMessage(msg)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	subject, err := decodeEncodedHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	signal := &core.ThreatSignal{
		Content: textContent,
		Subject: subject,
		Sender:  s.sender,
		ReplyTo: msg.Header.Get("Reply-To"),
	}

	senderDomain := "unknown"
	if parts := strings.Split(s.sender, "@"); len(parts) == 2 {
		senderDomain = parts[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	verdict := s.filter.service.Triage(ctx, signal)

	if !verdict.IsSafe && verdict.ThreatLevel == core.ThreatLevelHigh && s.filter.blockDanger {
		s.filter.logger.Info("Rejecting dangerous email",
			zap.String("from", s.sender),
			zap.String("sender_domain", senderDomain),
			zap.Float64("score", verdict.SuspiciousScore),
			zap.String("reason", verdict.Message))
		return fmt.Errorf("550 Rejected as dangerous (score: %.2f)", verdict.SuspiciousScore)
	}

	modifiedEmail := s.stampHeaders(msg, rawData, subject, verdict)

	if s.filter.postfixEnabled {
		if err := s.filter.sendToPostfix(s.sender, s.recipients, modifiedEmail); err != nil {
			s.filter.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", s.sender))
			return err
		}
	} else {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", s.sender),
		zap.String("sender_domain", senderDomain),
		zap.String("threat_level", string(verdict.ThreatLevel)),
		zap.Float64("score", verdict.SuspiciousScore))

	return nil
}

// stampHeaders rewrites the message with threat headers prepended, the
// subject optionally tagged, and the original body preserved byte for byte.
func (s *smtpSession) stampHeaders(msg *mail.Message, rawData []byte, subject string, verdict *core.SecurityVerdict) []byte {
	var out bytes.Buffer

	fmt.Fprintf(&out, "%s: %s\r\n", s.filter.levelHeader, verdict.ThreatLevel)
	fmt.Fprintf(&out, "%s: %.2f\r\n", s.filter.scoreHeader, verdict.SuspiciousScore)
	fmt.Fprintf(&out, "%s: %s\r\n", s.filter.reasonHeader, verdict.Message)
	if len(verdict.FoundPatterns) > 0 {
		fmt.Fprintf(&out, "%s: %s\r\n", s.filter.patternsHeader, strings.Join(verdict.FoundPatterns, ", "))
	}

	tagSubject := !verdict.IsSafe && s.filter.modifySubject && s.filter.subjectPrefix != "" &&
		!strings.HasPrefix(subject, s.filter.subjectPrefix)

	if tagSubject {
		fmt.Fprintf(&out, "Subject: %s\r\n", s.filter.subjectPrefix+subject)
	}
	for key, values := range msg.Header {
		if tagSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\r\n", key, value)
		}
	}
	out.WriteString("\r\n")

	// Preserve the original body bytes, MIME parts and attachments included
	if idx := bytes.Index(rawData, []byte("\r\n\r\n")); idx != -1 {
		out.Write(rawData[idx+4:])
	} else if idx := bytes.Index(rawData, []byte("\n\n")); idx != -1 {
		out.Write(rawData[idx+2:])
	} else if bodyBytes, err := io.ReadAll(msg.Body); err == nil {
		out.Write(bodyBytes)
	}

	return out.Bytes()
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
