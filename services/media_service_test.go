package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"
)

type recordedCommand struct {
	bin  string
	args []string
}

func newTestMediaService(t *testing.T, handler func(bin string, args []string) ([]byte, error)) (*mediaService, *[]recordedCommand) {
	t.Helper()
	var commands []recordedCommand
	svc := &mediaService{
		uploadDir: t.TempDir(),
		run: func(_ context.Context, bin string, args ...string) ([]byte, error) {
			commands = append(commands, recordedCommand{bin: bin, args: args})
			return handler(bin, args)
		},
	}
	return svc, &commands
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{61, "00:01:01"},
		{3600, "01:00:00"},
		{3725, "01:02:05"},
	}
	for _, tc := range cases {
		if got := formatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("formatTimestamp(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestTrimValidation(t *testing.T) {
	setTestConfig(t)

	cases := []struct {
		name    string
		in      TrimInput
		probed  string
		wantMsg string
	}{
		{"zero duration", TrimInput{FileName: "a.mp4", Duration: 0, OutputFile: "o.mp4"}, "100.0", ErrMsgInvalidDuration},
		{"negative duration", TrimInput{FileName: "a.mp4", Duration: -5, OutputFile: "o.mp4"}, "100.0", ErrMsgInvalidDuration},
		{"too long", TrimInput{FileName: "a.mp4", Duration: 3601, OutputFile: "o.mp4"}, "100000.0", ErrMsgDurationTooLong},
		{"negative start", TrimInput{FileName: "a.mp4", StartTime: -1, Duration: 10, OutputFile: "o.mp4"}, "100.0", ErrMsgInvalidTrimRange},
		{"range past end", TrimInput{FileName: "a.mp4", StartTime: 95, Duration: 10, OutputFile: "o.mp4"}, "100.0", ErrMsgInvalidTrimRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestMediaService(t, func(bin string, _ []string) ([]byte, error) {
				return []byte(tc.probed + "\n"), nil
			})
			err := svc.Trim(context.Background(), tc.in)
			code, msg := appErrCode(t, err)
			if code != http.StatusBadRequest || msg != tc.wantMsg {
				t.Fatalf("got (%d, %q), want (400, %q)", code, msg, tc.wantMsg)
			}
		})
	}
}

func TestTrimProbeFailure(t *testing.T) {
	setTestConfig(t)
	svc, _ := newTestMediaService(t, func(bin string, _ []string) ([]byte, error) {
		return []byte("no such file"), errors.New("exit status 1")
	})
	err := svc.Trim(context.Background(), TrimInput{FileName: "a.mp4", Duration: 10, OutputFile: "o.mp4"})
	_, msg := appErrCode(t, err)
	if msg != ErrMsgVideoInfoError {
		t.Fatalf("msg = %q, want VideoInfoError", msg)
	}
}

func TestTrimInvokesCopyCodec(t *testing.T) {
	setTestConfig(t)
	svc, commands := newTestMediaService(t, func(bin string, _ []string) ([]byte, error) {
		if strings.Contains(bin, "ffprobe") {
			return []byte("120.5\n"), nil
		}
		return nil, nil
	})

	err := svc.Trim(context.Background(), TrimInput{
		FileName: "in.mp4", StartTime: 30, Duration: 60, OutputFile: "out.mp4",
	})
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if len(*commands) != 2 {
		t.Fatalf("ran %d commands, want probe+trim", len(*commands))
	}
	trim := (*commands)[1]
	joined := strings.Join(trim.args, " ")
	for _, want := range []string{"-ss 00:00:30", "-t 00:01:00", "-c copy"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("trim args %q missing %q", joined, want)
		}
	}
}

func TestTrimToolFailure(t *testing.T) {
	setTestConfig(t)
	svc, _ := newTestMediaService(t, func(bin string, _ []string) ([]byte, error) {
		if strings.Contains(bin, "ffprobe") {
			return []byte("120.5\n"), nil
		}
		return []byte("muxer exploded"), errors.New("exit status 1")
	})
	err := svc.Trim(context.Background(), TrimInput{FileName: "in.mp4", Duration: 10, OutputFile: "out.mp4"})
	_, msg := appErrCode(t, err)
	if msg != ErrMsgTrimError {
		t.Fatalf("msg = %q, want TrimError", msg)
	}
}

func TestJoinRequiresTwoParts(t *testing.T) {
	setTestConfig(t)
	svc, _ := newTestMediaService(t, func(string, []string) ([]byte, error) { return nil, nil })
	err := svc.Join(context.Background(), JoinInput{Parts: []string{"only.mp4"}, OutputFile: "o.mp4"})
	code, msg := appErrCode(t, err)
	if code != http.StatusBadRequest || msg != ErrMsgJoinError {
		t.Fatalf("got (%d, %q), want (400, JoinError)", code, msg)
	}
}

func TestJoinWritesConcatList(t *testing.T) {
	setTestConfig(t)
	var listContent string
	svc, commands := newTestMediaService(t, nil)
	svc.run = func(_ context.Context, bin string, args ...string) ([]byte, error) {
		*commands = append(*commands, recordedCommand{bin: bin, args: args})
		for i, a := range args {
			if a == "-i" && i+1 < len(args) {
				data, err := os.ReadFile(args[i+1])
				if err != nil {
					return nil, err
				}
				listContent = string(data)
			}
		}
		return nil, nil
	}

	err := svc.Join(context.Background(), JoinInput{Parts: []string{"p1.mp4", "p2.mp4"}, OutputFile: "joined.mp4"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !strings.Contains(listContent, "p1.mp4") || !strings.Contains(listContent, "p2.mp4") {
		t.Fatalf("concat list %q missing parts", listContent)
	}
	joined := strings.Join((*commands)[0].args, " ")
	if !strings.Contains(joined, "-f concat") || !strings.Contains(joined, "-c copy") {
		t.Fatalf("join args %q missing concat/copy flags", joined)
	}
}

func TestJoinToolFailure(t *testing.T) {
	setTestConfig(t)
	svc, _ := newTestMediaService(t, func(string, []string) ([]byte, error) {
		return []byte("bad stream"), errors.New("exit status 1")
	})
	err := svc.Join(context.Background(), JoinInput{Parts: []string{"p1.mp4", "p2.mp4"}, OutputFile: "o.mp4"})
	_, msg := appErrCode(t, err)
	if msg != ErrMsgJoinError {
		t.Fatalf("msg = %q, want JoinError", msg)
	}
}
