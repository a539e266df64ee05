package engine

import "fmt"

// Units is an exact count of 64th notes. Tuplets make positions fractional,
// so it is kept as a reduced fraction.
type Units struct {
	num, den int64
}

// U returns n whole 64th notes.
func U(n int64) Units { return Units{num: n, den: 1} }

func frac(num, den int64) Units {
	if den == 0 {
		panic("engine: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g > 1 {
		num, den = num/g, den/g
	}
	return Units{num: num, den: den}
}

func (u Units) norm() Units {
	if u.den == 0 {
		return Units{den: 1}
	}
	return u
}

func (u Units) Add(v Units) Units {
	u, v = u.norm(), v.norm()
	return frac(u.num*v.den+v.num*u.den, u.den*v.den)
}

func (u Units) Sub(v Units) Units {
	v = v.norm()
	return u.Add(Units{num: -v.num, den: v.den})
}

// Scale multiplies by num/den.
func (u Units) Scale(num, den int64) Units {
	u = u.norm()
	return frac(u.num*num, u.den*den)
}

// Mod returns u modulo m, always in [0, m). A zero m leaves u unchanged.
func (u Units) Mod(m Units) Units {
	u, m = u.norm(), m.norm()
	if m.num == 0 {
		return u
	}
	a := u.num * m.den
	b := m.num * u.den
	r := a % b
	if r < 0 {
		r += b
	}
	return frac(r, u.den*m.den)
}

func (u Units) Cmp(v Units) int {
	u, v = u.norm(), v.norm()
	a, b := u.num*v.den, v.num*u.den
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (u Units) Equal(v Units) bool { return u.Cmp(v) == 0 }

func (u Units) IsZero() bool { return u.num == 0 }

func (u Units) Float() float64 {
	u = u.norm()
	return float64(u.num) / float64(u.den)
}

// Int truncates to whole 64th notes.
func (u Units) Int() int64 {
	u = u.norm()
	return u.num / u.den
}

func (u Units) String() string {
	u = u.norm()
	if u.den == 1 {
		return fmt.Sprint(u.num)
	}
	return fmt.Sprintf("%d/%d", u.num, u.den)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}
