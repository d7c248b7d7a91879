package hostscript

type binding struct {
	value Value
	konst bool
}

type scope struct {
	vars   map[string]*binding
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]*binding), parent: parent}
}

func (s *scope) lookup(name string) *binding {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.vars[name]; ok {
			return b
		}
	}
	return nil
}

// declare binds name in this scope, replacing any earlier binding.
func (s *scope) declare(name string, v Value, konst bool) {
	s.vars[name] = &binding{value: v, konst: konst}
}

func (s *scope) root() *scope {
	sc := s
	for sc.parent != nil {
		sc = sc.parent
	}
	return sc
}
