package vm

// StackDepth is the number of return addresses the call stack can hold.
const StackDepth = 12

// Stack is a fixed-capacity LIFO of return addresses.
type Stack struct {
	addrs [StackDepth]uint16
	depth int
}

func (s *Stack) Push(addr uint16) error {
	if s.depth == len(s.addrs) {
		return ErrStackOverflow
	}

	s.addrs[s.depth] = addr
	s.depth++
	return nil
}

func (s *Stack) Pop() (uint16, error) {
	if s.depth == 0 {
		return 0, ErrStackUnderflow
	}

	s.depth--
	return s.addrs[s.depth], nil
}

func (s *Stack) Depth() int {
	return s.depth
}

func (s *Stack) Reset() {
	*s = Stack{}
}
