package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zx06/xcred/internal/app"
	"github.com/zx06/xcred/internal/credstore"
	"github.com/zx06/xcred/internal/errors"
	"github.com/zx06/xcred/internal/output"
)

// 进程内共享的 memory backend（memory 模式下 mcp server 等长驻命令使用）。
var memoryBackend = &credstore.MemoryBackend{}

// keyringAPI 为 nil 时使用 OS keyring。
var keyringAPI credstore.KeyringAPI

// openStore 可在测试中替换。
var openStore = app.OpenStore

// parseOutputFormat parses and validates the output format string
func parseOutputFormat(s string) (output.Format, error) {
	f, ok := output.ParseFormat(s)
	if !ok {
		return "", errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": s, "allowed": output.Formats()})
	}
	return resolveAuto(f), nil
}

// resolveFormatForError resolves the format for error output
func resolveFormatForError(s string) output.Format {
	f, ok := output.ParseFormat(s)
	if !ok {
		f = output.FormatAuto
	}
	return resolveAuto(f)
}

// resolveAuto resolves "auto" format to appropriate format based on TTY
func resolveAuto(f output.Format) output.Format {
	if f != output.FormatAuto {
		return f
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return output.FormatTable
	}
	return output.FormatJSON
}

// normalizeErr normalizes any error to XError
func normalizeErr(err error) *errors.XError {
	if xe, ok := errors.As(err); ok {
		return xe
	}
	// Preserve original error message
	return errors.Wrap(errors.CodeInternal, err.Error(), nil, err)
}

// withStore opens the store for the resolved profile, runs fn, and closes it.
func withStore(ctx context.Context, fn func(*credstore.Store) error) error {
	h, xe := openStore(ctx, app.StoreOptions{
		Resolved: GlobalConfig.Resolved,
		Logger:   GlobalConfig.Logger,
		Keyring:  keyringAPI,
		Memory:   memoryBackend,
	})
	if xe != nil {
		return xe
	}
	defer h.Close()
	return fn(h.Store)
}

// readValue 读取待写入的值：参数 > --stdin > 终端隐藏输入。
func readValue(cmd *cobra.Command, args []string, fromStdin bool, prompt string) (string, error) {
	if len(args) > 0 {
		if fromStdin {
			return "", errors.New(errors.CodeCfgInvalid, "value argument and --stdin are mutually exclusive", nil)
		}
		return args[0], nil
	}

	in := cmd.InOrStdin()
	if !fromStdin {
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)
			b, err := term.ReadPassword(int(f.Fd()))
			_, _ = fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return "", errors.Wrap(errors.CodeInternal, "failed to read value", nil, err)
			}
			return string(b), nil
		}
		return "", errors.New(errors.CodeCfgInvalid, "value is required (argument, --stdin, or interactive prompt)", nil)
	}

	b, err := io.ReadAll(in)
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, "failed to read stdin", nil, err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
