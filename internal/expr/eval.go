package expr

import (
	"fmt"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports"
)

// EvalBool parses and evaluates src as a boolean condition against ctx.
func EvalBool(src string, ctx ports.ExprContext) (bool, error) {
	v, err := Eval(src, ctx)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, zerr.With(domain.ErrExpressionType, "expected", "bool", "expression", src)
	}
	return b, nil
}

// Eval parses and evaluates src against ctx, returning a string, int64, or bool.
func Eval(src string, ctx ports.ExprContext) (any, error) {
	node, err := Parse(src)
	if err != nil {
		return nil, zerr.With(err, "expression", src)
	}
	v, err := evalNode(node, ctx)
	if err != nil {
		return nil, zerr.With(err, "expression", src)
	}
	return v, nil
}

// Interpolate scans src for ${…} sites and replaces each with the string form
// of its evaluated value; text outside ${…} is passed through verbatim.
func Interpolate(src string, ctx ports.ExprContext) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(src) {
		start := strings.Index(src[i:], "${")
		if start < 0 {
			out.WriteString(src[i:])
			break
		}
		start += i
		out.WriteString(src[i:start])

		end := matchingBrace(src, start+2)
		if end < 0 {
			return "", zerr.With(domain.ErrExpressionSyntax, "reason", "unterminated ${ in "+src)
		}

		v, err := Eval(src[start+2:end], ctx)
		if err != nil {
			return "", err
		}
		out.WriteString(stringify(v))
		i = end + 1
	}
	return out.String(), nil
}

// matchingBrace returns the index of the '}' matching the '{' implied to
// start at openAt (i.e. the content starts at openAt), tracking nested parens
// so a shell(...) call containing a literal '}' does not terminate early.
func matchingBrace(src string, openAt int) int {
	depth := 0
	for i := openAt; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '}':
			if depth <= 0 {
				return i
			}
		}
	}
	return -1
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func evalNode(n Node, ctx ports.ExprContext) (any, error) {
	switch node := n.(type) {
	case Literal:
		return node.Value, nil
	case Ident:
		return evalIdent(node, ctx)
	case Call:
		return evalCall(node, ctx)
	case UnOp:
		return evalUnOp(node, ctx)
	case BinOp:
		return evalBinOp(node, ctx)
	default:
		return nil, zerr.With(domain.ErrExpressionSyntax, "reason", "unknown node type")
	}
}

func evalIdent(node Ident, ctx ports.ExprContext) (any, error) {
	if len(node.Parts) == 0 {
		return nil, zerr.With(domain.ErrUnresolvedIdentifier, "identifier", "")
	}

	joined := strings.Join(node.Parts, ".")

	switch node.Parts[0] {
	case "platform":
		if len(node.Parts) == 2 {
			switch node.Parts[1] {
			case "os":
				return ctx.PlatformOS(), nil
			case "is_linux":
				return ctx.PlatformOS() == "linux", nil
			case "is_macos":
				return ctx.PlatformOS() == "darwin", nil
			case "is_windows":
				return ctx.PlatformOS() == "windows", nil
			}
		}
	case "arch":
		if len(node.Parts) == 2 {
			switch node.Parts[1] {
			case "name":
				return ctx.ArchName(), nil
			case "is_x86_64":
				return ctx.ArchName() == "amd64", nil
			case "is_aarch64":
				return ctx.ArchName() == "arm64", nil
			}
		}
	case "env":
		if len(node.Parts) == 2 {
			v, ok := ctx.Env(node.Parts[1])
			if !ok {
				return "", nil
			}
			return v, nil
		}
	case "matrix":
		if len(node.Parts) == 2 {
			v, ok := ctx.Matrix(node.Parts[1])
			if !ok {
				return nil, zerr.With(domain.ErrUnresolvedIdentifier, "identifier", joined)
			}
			return v, nil
		}
	}

	return nil, zerr.With(domain.ErrUnresolvedIdentifier, "identifier", joined)
}

func evalCall(node Call, ctx ports.ExprContext) (any, error) {
	args := make([]any, len(node.Args))
	for i, a := range node.Args {
		v, err := evalNode(a, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	joined := strings.Join(node.Target, ".")

	switch joined {
	case "file.exists":
		path, err := argString(args, 0, joined)
		if err != nil {
			return nil, err
		}
		return ctx.FileExists(path), nil

	case "file.hash":
		path, err := argString(args, 0, joined)
		if err != nil {
			return nil, err
		}
		return ctx.FileHash(path)

	case "file.newer":
		a, err := argString(args, 0, joined)
		if err != nil {
			return nil, err
		}
		b, err := argString(args, 1, joined)
		if err != nil {
			return nil, err
		}
		return ctx.FileNewer(a, b)

	case "shell":
		cmd, err := argString(args, 0, joined)
		if err != nil {
			return nil, err
		}
		out, err := ctx.Shell(cmd)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrShellExpressionFailed.Error()), "command", cmd)
		}
		return out, nil

	case "semver":
		version, err := argString(args, 0, joined)
		if err != nil {
			return nil, err
		}
		constraint, err := argString(args, 1, joined)
		if err != nil {
			return nil, err
		}
		return satisfiesSemver(version, constraint)

	case "task.status":
		name, err := argString(args, 0, joined)
		if err != nil {
			return nil, err
		}
		status, ok := ctx.TaskStatus(name)
		if !ok {
			return "", nil
		}
		return status, nil

	case "task.output":
		name, err := argString(args, 0, joined)
		if err != nil {
			return nil, err
		}
		out, ok := ctx.TaskOutput(name)
		if !ok {
			return "", nil
		}
		return out, nil

	default:
		return nil, zerr.With(domain.ErrUnresolvedIdentifier, "identifier", joined)
	}
}

func argString(args []any, idx int, callName string) (string, error) {
	if idx >= len(args) {
		return "", zerr.With(domain.ErrExpressionType, "reason", "missing argument", "call", callName)
	}
	s, ok := args[idx].(string)
	if !ok {
		return "", zerr.With(domain.ErrExpressionType, "reason", "expected string argument", "call", callName)
	}
	return s, nil
}

func evalUnOp(node UnOp, ctx ports.ExprContext) (any, error) {
	v, err := evalNode(node.Operand, ctx)
	if err != nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, zerr.With(domain.ErrExpressionType, "reason", "! requires a boolean operand")
	}
	return !b, nil
}

func evalBinOp(node BinOp, ctx ports.ExprContext) (any, error) {
	switch node.Op {
	case "&&":
		left, err := evalBool(node.Left, ctx)
		if err != nil {
			return nil, err
		}
		if !left {
			return false, nil
		}
		return evalBool(node.Right, ctx)

	case "||":
		left, err := evalBool(node.Left, ctx)
		if err != nil {
			return nil, err
		}
		if left {
			return true, nil
		}
		return evalBool(node.Right, ctx)

	case "==", "!=":
		left, err := evalNode(node.Left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := evalNode(node.Right, ctx)
		if err != nil {
			return nil, err
		}
		eq := fmt.Sprint(left) == fmt.Sprint(right)
		if node.Op == "!=" {
			return !eq, nil
		}
		return eq, nil

	default:
		return nil, zerr.With(domain.ErrExpressionSyntax, "reason", "unknown operator "+node.Op)
	}
}

func evalBool(n Node, ctx ports.ExprContext) (bool, error) {
	v, err := evalNode(n, ctx)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, zerr.With(domain.ErrExpressionType, "reason", "expected boolean operand")
	}
	return b, nil
}
