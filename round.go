package nexthash256

// round applies one mixing step to the 16-word working state, consuming
// one schedule word and one round constant. All temps and the ten
// cross-half multiplications are computed from the pre-round state s;
// the update below is conceptually simultaneous, so s is never mutated
// in place mid-computation (a second array is returned instead).
func round(s *[numWords]uint32, wi, ki uint32) [numWords]uint32 {
	a, b, c, d := s[0], s[1], s[2], s[3]
	e, f, g, h := s[4], s[5], s[6], s[7]
	i, j, k, l := s[8], s[9], s[10], s[11]
	m, n, o, p := s[12], s[13], s[14], s[15]

	t1 := h + bigSigma1(e) + ch(e, f, g) + ki + wi
	t2 := bigSigma0(a) + maj(a, b, c)

	m1 := wmul(a^i, e^m)
	m2 := wmul(b^j, f^n)
	m3 := wmul(c^k, g^o)
	m4 := wmul(d^l, h^p)
	m5 := wmul(a^m, e^i)
	m6 := wmul(b^n, f^j)
	m7 := wmul(c^o, g^k)
	m8 := wmul(d^p, h^l)
	m9 := wmul(a^p, d^m)
	m10 := wmul(b^o, c^n)

	t3 := p + bigSigma1(m) + ch(m, n, o) + (ki ^ lowerHalfMask) + wi
	t4 := bigSigma0(i) + maj(i, j, k)

	// Lanes 2, 6, 10, 14 pass through unchanged this round; diffusion
	// into them comes only from the periodic permutation below.
	return [numWords]uint32{
		t1 + t2 + m1 + m5 + m9,
		a + m6 + m10,
		b,
		c + m2 + m7,
		d + t1 + m9,
		e + m8,
		f,
		g + m3 + m10,
		t3 + t4 + m1 + m5,
		i + m6,
		j,
		k + m4 + m7,
		l + t3 + m9,
		m + m8,
		n,
		o + (m2 ^ m3 ^ m4) + m10,
	}
}

// permute interleaves the upper and lower halves of the state pair by
// pair. It runs after every 4th round (including the last, since
// numRounds is a multiple of 4).
func permute(s *[numWords]uint32) [numWords]uint32 {
	return [numWords]uint32{
		s[0], s[8], s[1], s[9], s[2], s[10], s[3], s[11],
		s[4], s[12], s[5], s[13], s[6], s[14], s[7], s[15],
	}
}
