//go:build linux

package input

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"
)

const devInputDir = "/dev/input"

// Sources owns every opened evdev node. A single epoll instance multiplexes
// both seats; one reader goroutine drains ready descriptors and forwards
// decoded events on the channel in arrival order. Device nodes appearing
// later (hotplug, late driver probe) are picked up through an fsnotify watch
// on /dev/input.
type Sources struct {
	events chan Event
	epfd   int

	mu      sync.Mutex
	devices map[int]*device

	stripW, stripH int
	watcher        *fsnotify.Watcher
	logger         *slog.Logger
	closed         chan struct{}
}

// Open scans /dev/input and starts the reader. At least one usable device is
// not required up front; the digitizer may appear after startup.
func Open(stripW, stripH int, logger *slog.Logger) (*Sources, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(devInputDir); err != nil {
		watcher.Close()
		unix.Close(epfd)
		return nil, fmt.Errorf("watch %s: %w", devInputDir, err)
	}

	s := &Sources{
		events:  make(chan Event, 256),
		epfd:    epfd,
		devices: make(map[int]*device),
		stripW:  stripW,
		stripH:  stripH,
		watcher: watcher,
		logger:  logger,
		closed:  make(chan struct{}),
	}

	paths, _ := filepath.Glob(filepath.Join(devInputDir, "event*"))
	sort.Strings(paths)
	for _, path := range paths {
		s.addDevice(path)
	}

	go s.run()
	go s.watchHotplug()
	return s, nil
}

// Events is the stream the coordinator drains.
func (s *Sources) Events() <-chan Event {
	return s.events
}

func (s *Sources) addDevice(path string) {
	d, err := openDevice(path, s.stripW, s.stripH)
	if err != nil {
		s.logger.Debug("skipping input device", "path", path, "error", err)
		return
	}
	fd := int(d.f.Fd())

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		s.logger.Warn("epoll add", "path", path, "error", err)
		d.f.Close()
		return
	}

	s.mu.Lock()
	s.devices[fd] = d
	s.mu.Unlock()

	s.logger.Info("input device", "name", d.name, "seat", d.seat, "digitizer", d.mt != nil)
	s.send(Event{Seat: d.seat, Type: DeviceAdded, Name: d.name})

	if d.lid {
		if closed, err := d.currentLidClosed(); err == nil {
			s.send(Event{Seat: d.seat, Type: LidSwitch, LidClosed: closed})
		}
	}
}

func (s *Sources) removeDevice(fd int) {
	s.mu.Lock()
	d := s.devices[fd]
	delete(s.devices, fd)
	s.mu.Unlock()
	if d == nil {
		return
	}
	_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	d.f.Close()
	s.logger.Info("input device removed", "name", d.name)
}

func (s *Sources) run() {
	epollEvents := make([]unix.EpollEvent, 32)
	buf := make([]byte, inputEventSize*64)

	for {
		n, err := unix.EpollWait(s.epfd, epollEvents, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			select {
			case <-s.closed:
			default:
				s.logger.Error("epoll_wait", "error", err)
			}
			return
		}
		for i := 0; i < n; i++ {
			fd := int(epollEvents[i].Fd)
			s.mu.Lock()
			d := s.devices[fd]
			s.mu.Unlock()
			if d == nil {
				continue
			}
			if epollEvents[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				s.removeDevice(fd)
				continue
			}
			s.drainDevice(d, fd, buf)
		}
	}
}

// drainDevice reads until the descriptor is empty; a spurious wake with no
// data is a no-op.
func (s *Sources) drainDevice(d *device, fd int, buf []byte) {
	for {
		n, err := unix.Read(fd, buf)
		if err != nil || n <= 0 {
			return
		}
		for _, raw := range decodeEvents(buf[:n]) {
			s.dispatchRaw(d, raw)
		}
		if n < len(buf) {
			return
		}
	}
}

func (s *Sources) dispatchRaw(d *device, raw inputEvent) {
	if d.mt != nil {
		for _, ev := range d.mt.feed(raw) {
			s.send(ev)
		}
		return
	}
	switch raw.Type {
	case evKey:
		// Value 2 is autorepeat; the layer modifier is edge-triggered.
		if raw.Value == 2 {
			return
		}
		s.send(Event{Seat: d.seat, Type: KeyPress, Code: raw.Code, Pressed: raw.Value != 0})
	case evRel:
		// Pointer traffic only feeds the activity stamp; drop it when the
		// channel is full rather than stalling the reader.
		select {
		case s.events <- Event{Seat: d.seat, Type: Pointer}:
		default:
		}
	case evSw:
		if raw.Code == swLid {
			s.send(Event{Seat: d.seat, Type: LidSwitch, LidClosed: raw.Value != 0})
		}
	}
}

func (s *Sources) send(ev Event) {
	select {
	case s.events <- ev:
	case <-s.closed:
	}
}

func (s *Sources) watchHotplug() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create != 0 && filepath.Base(ev.Name) != "" {
				if match, _ := filepath.Match("event*", filepath.Base(ev.Name)); match {
					s.addDevice(ev.Name)
				}
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("input hotplug watcher", "error", err)
		case <-s.closed:
			return
		}
	}
}

// Close shuts the reader down and releases every device.
func (s *Sources) Close() error {
	close(s.closed)
	s.watcher.Close()
	unix.Close(s.epfd)
	s.mu.Lock()
	defer s.mu.Unlock()
	for fd, d := range s.devices {
		d.f.Close()
		delete(s.devices, fd)
	}
	return nil
}
