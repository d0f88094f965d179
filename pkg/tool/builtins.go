// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jllopis/agora/pkg/errors"
)

// RegisterBuiltins adds the stock tools (calculate, current_time,
// word_count) to the registry.
func RegisterBuiltins(r *Registry) error {
	for _, spec := range []Spec{CalculateSpec(), CurrentTimeSpec(), WordCountSpec()} {
		if err := r.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

// CalculateSpec evaluates basic arithmetic expressions.
func CalculateSpec() Spec {
	return Spec{
		Name:        "calculate",
		Description: "Evaluate an arithmetic expression with +, -, *, /, and parentheses.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "The expression to evaluate, e.g. \"2 + 3 * 4\"",
				},
			},
			"required": []string{"expression"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			expr, _ := args["expression"].(string)
			value, err := evalExpression(expr)
			if err != nil {
				return nil, err
			}
			return strconv.FormatFloat(value, 'f', -1, 64), nil
		},
	}
}

// CurrentTimeSpec reports the current time, optionally in a named location.
func CurrentTimeSpec() Spec {
	return Spec{
		Name:        "current_time",
		Description: "Return the current date and time in RFC 3339 format.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"timezone": map[string]any{
					"type":        "string",
					"description": "IANA timezone name, e.g. Europe/Madrid. Defaults to UTC.",
				},
			},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			loc := time.UTC
			if tz, ok := args["timezone"].(string); ok && tz != "" {
				var err error
				loc, err = time.LoadLocation(tz)
				if err != nil {
					return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
				}
			}
			return time.Now().In(loc).Format(time.RFC3339), nil
		},
	}
}

// WordCountSpec counts words in a text.
func WordCountSpec() Spec {
	return Spec{
		Name:        "word_count",
		Description: "Count the number of words in a text.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The text to count words in",
				},
			},
			"required": []string{"text"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			text, _ := args["text"].(string)
			return len(strings.Fields(text)), nil
		},
	}
}

// evalExpression is a small recursive-descent evaluator for +, -, *, /,
// unary minus, and parentheses over float64.
func evalExpression(input string) (float64, error) {
	p := &exprParser{src: input}
	v, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.src) {
		return 0, errors.Newf(errors.CodeValidation, "unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	return v, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseSum() (float64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseProduct() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, errors.New(errors.CodeValidation, "division by zero", nil)
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (float64, error) {
	if p.peek() == '(' {
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, errors.New(errors.CodeValidation, "missing closing parenthesis", nil)
		}
		p.pos++
		return v, nil
	}

	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsDigit(rune(p.src[p.pos])) || p.src[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 0, errors.Newf(errors.CodeValidation, "expected number at position %d", start)
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, errors.New(errors.CodeValidation, "invalid number "+p.src[start:p.pos], err)
	}
	return v, nil
}
