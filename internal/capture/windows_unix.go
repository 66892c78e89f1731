//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

func platformWindows() ([]Window, error) {
	if runningOnWayland() {
		return nil, errors.New("window listing needs an X11 session")
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X server: %w", err)
	}
	defer conn.Close()

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	ids, err := clientList(conn, root)
	if err != nil {
		return nil, err
	}
	windows := make([]Window, 0, len(ids))
	// The stacking list runs bottom to top.
	for i := len(ids) - 1; i >= 0; i-- {
		w, err := describeWindow(conn, root, ids[i])
		if err != nil {
			continue
		}
		windows = append(windows, w)
	}
	if len(windows) == 0 {
		return nil, errNoWindows
	}
	return windows, nil
}

// clientList reads the managed windows, preferring stacking order.
func clientList(conn *xgb.Conn, root xproto.Window) ([]xproto.Window, error) {
	for _, name := range []string{"_NET_CLIENT_LIST_STACKING", "_NET_CLIENT_LIST"} {
		atom, err := internAtom(conn, name)
		if err != nil || atom == 0 {
			continue
		}
		reply, err := xproto.GetProperty(conn, false, root, atom, xproto.AtomWindow, 0, 1<<16).Reply()
		if err != nil || reply.Format != 32 || reply.ValueLen == 0 {
			continue
		}
		var ids []xproto.Window
		for _, id := range cardinals(reply.Value, int(reply.ValueLen)) {
			ids = append(ids, xproto.Window(id))
		}
		return ids, nil
	}
	return nil, errNoWindows
}

// cardinals decodes up to n 32-bit property values.
func cardinals(value []byte, n int) []uint32 {
	if n > len(value)/4 {
		n = len(value) / 4
	}
	out := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, xgb.Get32(value[i*4:]))
	}
	return out
}

func describeWindow(conn *xgb.Conn, root, win xproto.Window) (Window, error) {
	content, err := windowRect(conn, root, win)
	if err != nil {
		return Window{}, err
	}
	title := readUTF8Property(conn, win, "_NET_WM_NAME")
	if title == "" {
		title = readStringProperty(conn, win, "WM_NAME")
	}
	outer := content
	if !fullscreen(conn, win) {
		outer = withFrame(content, frameExtents(conn, win))
	}
	return Window{ID: uint32(win), Title: title, Content: content, Outer: outer}, nil
}

// windowRect is the client area of win in root coordinates.
func windowRect(conn *xgb.Conn, root, win xproto.Window) (image.Rectangle, error) {
	geo, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	trans, err := xproto.TranslateCoordinates(conn, win, root, 0, 0).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	x, y := int(trans.DstX), int(trans.DstY)
	return image.Rect(x, y, x+int(geo.Width), y+int(geo.Height)), nil
}

// frameExtents reads _NET_FRAME_EXTENTS: left, right, top and bottom.
func frameExtents(conn *xgb.Conn, win xproto.Window) []byte {
	atom, err := internAtom(conn, "_NET_FRAME_EXTENTS")
	if err != nil || atom == 0 {
		return nil
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, xproto.AtomCardinal, 0, 4).Reply()
	if err != nil || reply.Format != 32 || reply.ValueLen != 4 {
		return nil
	}
	return reply.Value
}

// withFrame grows content by a _NET_FRAME_EXTENTS value. Anything but four
// cardinals leaves it unchanged.
func withFrame(content image.Rectangle, extents []byte) image.Rectangle {
	if len(extents) < 16 {
		return content
	}
	left, right := int(xgb.Get32(extents)), int(xgb.Get32(extents[4:]))
	top, bottom := int(xgb.Get32(extents[8:])), int(xgb.Get32(extents[12:]))
	return image.Rect(content.Min.X-left, content.Min.Y-top, content.Max.X+right, content.Max.Y+bottom)
}

func fullscreen(conn *xgb.Conn, win xproto.Window) bool {
	state, err := internAtom(conn, "_NET_WM_STATE")
	if err != nil || state == 0 {
		return false
	}
	full, err := internAtom(conn, "_NET_WM_STATE_FULLSCREEN")
	if err != nil || full == 0 {
		return false
	}
	reply, err := xproto.GetProperty(conn, false, win, state, xproto.AtomAtom, 0, 1024).Reply()
	if err != nil || reply.Format != 32 {
		return false
	}
	for _, a := range cardinals(reply.Value, int(reply.ValueLen)) {
		if xproto.Atom(a) == full {
			return true
		}
	}
	return false
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

func readUTF8Property(conn *xgb.Conn, win xproto.Window, name string) string {
	atom, err := internAtom(conn, name)
	if err != nil || atom == 0 {
		return ""
	}
	utf8, err := internAtom(conn, "UTF8_STRING")
	if err != nil || utf8 == 0 {
		return ""
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, utf8, 0, 1<<16).Reply()
	if err != nil || reply.ValueLen == 0 {
		return ""
	}
	return strings.TrimRight(string(reply.Value), "\x00")
}

func readStringProperty(conn *xgb.Conn, win xproto.Window, name string) string {
	atom, err := internAtom(conn, name)
	if err != nil || atom == 0 {
		return ""
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, xproto.AtomString, 0, 1<<16).Reply()
	if err != nil || reply.ValueLen == 0 {
		return ""
	}
	return strings.TrimRight(string(reply.Value), "\x00")
}
