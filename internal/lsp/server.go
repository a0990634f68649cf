package lsp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"go.lsp.dev/protocol"

	"codenav/internal/engine"
	"codenav/internal/unit"
	"codenav/util"
)

// Server answers textDocument/definition over stdio-style streams, keeping
// the text of every open document so lookups see unsaved edits.
type Server struct {
	engine      *engine.Engine
	conn        *Conn
	version     string
	docs        map[string][]byte // path -> text of open documents
	initialized bool
	shutdown    bool
}

// NewServer returns a Server for e speaking on in/out.
func NewServer(e *engine.Engine, in io.Reader, out io.Writer, version string) *Server {
	return &Server{
		engine:  e,
		conn:    NewConn(in, out),
		version: version,
		docs:    make(map[string][]byte),
	}
}

var errExit = errors.New("exit")

// Serve handles messages until exit or end of input. It returns nil after a
// clean shutdown and exit.
func (s *Server) Serve() error {
	for {
		msg, err := s.conn.Read()
		if err != nil {
			var rpcErr *RPCError
			if errors.As(err, &rpcErr) {
				s.conn.ReplyError(nil, rpcErr)
				continue
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("client closed the stream without exit")
			}
			return err
		}

		result, err := s.handle(msg)
		if errors.Is(err, errExit) {
			if s.shutdown {
				return nil
			}
			return fmt.Errorf("exit without shutdown")
		}
		if msg.IsNotification() {
			if err != nil {
				log.Printf("[lsp] %s: %v", msg.Method, err)
			}
			continue
		}

		if err != nil {
			var rpcErr *RPCError
			if !errors.As(err, &rpcErr) {
				rpcErr = &RPCError{Code: CodeInternalError, Message: err.Error()}
			}
			err = s.conn.ReplyError(msg.ID, rpcErr)
		} else {
			err = s.conn.Reply(msg.ID, result)
		}
		if err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
}

func (s *Server) handle(msg *Message) (interface{}, error) {
	switch msg.Method {
	case MethodInitialize:
		return s.initialize(msg.Params)
	case MethodInitialized:
		return nil, nil
	case MethodShutdown:
		s.shutdown = true
		return nil, nil
	case MethodExit:
		return nil, errExit
	}

	if !s.initialized {
		return nil, &RPCError{Code: CodeServerNotInitialized, Message: "server not initialized"}
	}

	switch msg.Method {
	case MethodDidOpen:
		var p protocol.DidOpenTextDocumentParams
		if err := decode(msg.Params, &p); err != nil {
			return nil, err
		}
		s.docs[uriPath(p.TextDocument.URI)] = []byte(p.TextDocument.Text)
		return nil, nil

	case MethodDidChange:
		var p protocol.DidChangeTextDocumentParams
		if err := decode(msg.Params, &p); err != nil {
			return nil, err
		}
		// full sync: the last change holds the whole document
		if n := len(p.ContentChanges); n > 0 {
			s.docs[uriPath(p.TextDocument.URI)] = []byte(p.ContentChanges[n-1].Text)
		}
		return nil, nil

	case MethodDidSave:
		var p protocol.DidSaveTextDocumentParams
		if err := decode(msg.Params, &p); err != nil {
			return nil, err
		}
		if p.Text != "" {
			s.docs[uriPath(p.TextDocument.URI)] = []byte(p.Text)
		}
		return nil, nil

	case MethodDidClose:
		var p protocol.DidCloseTextDocumentParams
		if err := decode(msg.Params, &p); err != nil {
			return nil, err
		}
		delete(s.docs, uriPath(p.TextDocument.URI))
		return nil, nil

	case MethodDefinition:
		var p protocol.DefinitionParams
		if err := decode(msg.Params, &p); err != nil {
			return nil, err
		}
		return s.definition(&p), nil
	}

	return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", msg.Method)}
}

func (s *Server) initialize(params json.RawMessage) (interface{}, error) {
	var p protocol.InitializeParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	s.initialized = true

	if root := uriPath(p.RootURI); root != "" && s.engine.Config().Preload.Enabled {
		n, err := s.engine.Preload(root, nil)
		if err != nil {
			log.Printf("[lsp] Warning: preload of %s incomplete: %v", root, err)
		}
		log.Printf("[lsp] %d units loaded from %s", n, root)
	}

	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync:   protocol.TextDocumentSyncKindFull,
			DefinitionProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{Name: "codenav", Version: s.version},
	}, nil
}

// definition returns the target location, or nil when the engine stayed put.
func (s *Server) definition(p *protocol.DefinitionParams) *protocol.Location {
	file := uriPath(p.TextDocument.URI)
	line := int(p.Position.Line)
	col := byteOffset(lineText(s.text(file), line), int(p.Position.Character))

	jump := s.engine.GoToDefinition(file, line+1, col+1, s.buffers())
	if !jump.Moved {
		return nil
	}

	target := lineText(s.text(jump.File), jump.Line-1)
	pos := protocol.Position{
		Line:      uint32(jump.Line - 1),
		Character: uint32(unitOffset(target, jump.Column-1)),
	}
	return &protocol.Location{
		URI:   protocol.DocumentURI(util.PathToURI(jump.File)),
		Range: protocol.Range{Start: pos, End: pos},
	}
}

// text returns the open document text for file, or its content on disk.
func (s *Server) text(file string) []byte {
	if text, ok := s.docs[file]; ok {
		return text
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil
	}
	return data
}

// buffers lists the open documents, sorted by path.
func (s *Server) buffers() []unit.Buffer {
	files := make([]string, 0, len(s.docs))
	for file := range s.docs {
		files = append(files, file)
	}
	sort.Strings(files)

	buffers := make([]unit.Buffer, 0, len(files))
	for _, file := range files {
		buffers = append(buffers, unit.Buffer{File: file, Text: s.docs[file]})
	}
	return buffers
}

func decode(params json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return &RPCError{Code: CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func uriPath(u protocol.DocumentURI) string {
	if u == "" {
		return ""
	}
	return util.NormalizePath(util.URIToPath(string(u)))
}
