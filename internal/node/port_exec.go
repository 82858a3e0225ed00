package node

import "sync"

// ExecInput is the control-flow entry of a node. It accepts one ExecOutput.
type ExecInput struct {
	name  string
	owner *Node

	mu  sync.Mutex
	src *ExecOutput
}

func (p *ExecInput) isInput()     {}
func (p *ExecInput) Name() string { return p.name }
func (p *ExecInput) Node() *Node  { return p.owner }

// Source returns the linked ExecOutput, or nil when unlinked or when the
// other node has been released.
func (p *ExecInput) Source() *ExecOutput {
	p.mu.Lock()
	src := p.src
	p.mu.Unlock()
	if src == nil || src.owner.Released() {
		return nil
	}
	return src
}

func (p *ExecInput) Connected() bool { return p.Source() != nil }

func (p *ExecInput) Disconnect() {
	p.mu.Lock()
	src := p.src
	p.src = nil
	p.mu.Unlock()
	if src != nil {
		src.detach(p)
	}
}

func (p *ExecInput) detach(out *ExecOutput) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == out {
		p.src = nil
	}
}

// ExecOutput is a named control-flow exit of a node.
type ExecOutput struct {
	name  string
	owner *Node

	mu  sync.Mutex
	dst *ExecInput
}

func (p *ExecOutput) isOutput()    {}
func (p *ExecOutput) Name() string { return p.name }
func (p *ExecOutput) Node() *Node  { return p.owner }

// Target returns the linked ExecInput, or nil.
func (p *ExecOutput) Target() *ExecInput {
	p.mu.Lock()
	dst := p.dst
	p.mu.Unlock()
	if dst == nil || dst.owner.Released() {
		return nil
	}
	return dst
}

func (p *ExecOutput) Connected() bool { return p.Target() != nil }

func (p *ExecOutput) Disconnect() {
	p.mu.Lock()
	dst := p.dst
	p.dst = nil
	p.mu.Unlock()
	if dst != nil {
		dst.detach(p)
	}
}

func (p *ExecOutput) detach(in *ExecInput) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dst == in {
		p.dst = nil
	}
}

// ConnectExec links out to in, dropping any previous link on either end.
func ConnectExec(out *ExecOutput, in *ExecInput) {
	out.Disconnect()
	in.Disconnect()

	in.mu.Lock()
	in.src = out
	in.mu.Unlock()

	out.mu.Lock()
	out.dst = in
	out.mu.Unlock()
}
