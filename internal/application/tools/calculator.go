package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/toheart/courseagent/internal/domain/session"
)

// ErrBadExpression 表达式语法错误
var ErrBadExpression = errors.New("invalid arithmetic expression")

// Calculator 四则运算工具
// 练习和考试场景的数值验算，只支持 + - * / % ^ 和括号
type Calculator struct{}

// NewCalculator 创建计算器工具
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Name 实现 Tool 接口
func (c *Calculator) Name() session.Tool { return session.ToolCalculator }

// Description 实现 Tool 接口
func (c *Calculator) Description() string {
	return "计算算术表达式，参数 expression，支持 + - * / % ^ 和括号"
}

// Execute 实现 Tool 接口
func (c *Calculator) Execute(_ context.Context, _ string, args map[string]string) (string, error) {
	expr := strings.TrimSpace(args["expression"])
	if expr == "" {
		return "", fmt.Errorf("missing expression: %w", ErrBadExpression)
	}

	result, err := Evaluate(expr)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(result, 'g', -1, 64), nil
}

// Evaluate 计算算术表达式
// 递归下降：expr → term → power → unary → primary
func Evaluate(expr string) (float64, error) {
	p := &exprParser{input: []rune(expr)}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected character at %d: %w", p.pos, ErrBadExpression)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("result out of range: %w", ErrBadExpression)
	}
	return v, nil
}

type exprParser struct {
	input []rune
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *exprParser) peek() rune {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// parseExpr 加减
func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// parseTerm 乘除模
func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parsePower()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero: %w", ErrBadExpression)
			}
			left /= right
		case '%':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero: %w", ErrBadExpression)
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

// parsePower 幂，右结合
func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	if p.peek() == '^' {
		p.pos++
		exp, err := p.parsePower()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

// parseUnary 一元正负号
func (p *exprParser) parseUnary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePrimary()
}

// parsePrimary 数字或括号
func (p *exprParser) parsePrimary() (float64, error) {
	ch := p.peek()
	if ch == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis: %w", ErrBadExpression)
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected number at %d: %w", start, ErrBadExpression)
	}

	v, err := strconv.ParseFloat(string(p.input[start:p.pos]), 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q: %w", string(p.input[start:p.pos]), ErrBadExpression)
	}
	return v, nil
}
