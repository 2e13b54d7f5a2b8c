package room_test

import (
	"sync"
	"testing"
	"time"

	"github.com/JackieWYB/majiang-sub000/game"
	"github.com/JackieWYB/majiang-sub000/mahjong"
	"github.com/JackieWYB/majiang-sub000/room"
)

func newManager() *room.Manager {
	return room.NewManager(room.ManagerOptions{})
}

func TestCreateRoomAssignsSixDigitID(t *testing.T) {
	m := newManager()
	defer m.Close()

	r, err := m.CreateRoom(101, mahjong.DefaultConfig())
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}
	if len(r.ID) != 6 {
		t.Fatalf("room id = %q, want 6 digits", r.ID)
	}
	for _, c := range r.ID {
		if c < '0' || c > '9' {
			t.Fatalf("room id %q contains non-digit", r.ID)
		}
	}
	if r.Seats()[0] != 101 {
		t.Fatalf("owner must occupy seat 0, seats = %v", r.Seats())
	}
	if r.Status() != room.StatusWaiting {
		t.Fatalf("fresh room status = %s", r.Status())
	}

	if _, err := m.CreateRoom(101, mahjong.DefaultConfig()); err == nil {
		t.Fatalf("seated user must not create another room")
	}
}

func TestCreateRoomRejectsBadConfig(t *testing.T) {
	m := newManager()
	defer m.Close()

	bad := mahjong.DefaultConfig()
	bad.Score.BaseScore = 0
	if _, err := m.CreateRoom(101, bad); game.CodeOf(err) != game.CodeInvalidInput {
		t.Fatalf("error = %v, want INVALID_INPUT", err)
	}
}

func TestJoinFillsSeatsAndStartsGame(t *testing.T) {
	m := newManager()
	defer m.Close()

	r, err := m.CreateRoom(101, mahjong.DefaultConfig())
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}
	seat, err := m.JoinRoom(r.ID, 102)
	if err != nil || seat != 1 {
		t.Fatalf("join = (%d, %v), want seat 1", seat, err)
	}
	// 重复加入幂等
	again, err := m.JoinRoom(r.ID, 102)
	if err != nil || again != 1 {
		t.Fatalf("repeated join = (%d, %v), want seat 1", again, err)
	}

	if _, err := m.JoinRoom(r.ID, 103); err != nil {
		t.Fatalf("third join failed: %v", err)
	}
	if r.Status() != room.StatusPlaying {
		t.Fatalf("full room must auto-start, status = %s", r.Status())
	}
	if r.Engine() == nil {
		t.Fatalf("playing room must own an engine")
	}

	if _, err := m.JoinRoom(r.ID, 104); game.CodeOf(err) != game.CodeRoomFull {
		t.Fatalf("late join error = %v, want ROOM_FULL", err)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	m := newManager()
	defer m.Close()

	if _, err := m.JoinRoom("000000", 101); game.CodeOf(err) != game.CodeRoomNotFound {
		t.Fatalf("error = %v, want ROOM_NOT_FOUND", err)
	}
}

func TestUserCannotSitInTwoRooms(t *testing.T) {
	m := newManager()
	defer m.Close()

	r1, _ := m.CreateRoom(101, mahjong.DefaultConfig())
	r2, _ := m.CreateRoom(201, mahjong.DefaultConfig())
	if _, err := m.JoinRoom(r1.ID, 102); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if _, err := m.JoinRoom(r2.ID, 102); err == nil {
		t.Fatalf("user seated in %s must not join %s", r1.ID, r2.ID)
	}
}

func TestJoinFailureReleasesUser(t *testing.T) {
	m := newManager()
	defer m.Close()

	full, _ := m.CreateRoom(101, mahjong.DefaultConfig())
	m.JoinRoom(full.ID, 102)
	m.JoinRoom(full.ID, 103) // 满员开局

	if _, err := m.JoinRoom(full.ID, 104); game.CodeOf(err) != game.CodeRoomFull {
		t.Fatalf("error = %v, want ROOM_FULL", err)
	}
	// 加入失败不能把用户卡在占位上
	open, _ := m.CreateRoom(201, mahjong.DefaultConfig())
	if seat, err := m.JoinRoom(open.ID, 104); err != nil || seat != 1 {
		t.Fatalf("join after failure = (%d, %v), want seat 1", seat, err)
	}
}

func TestConcurrentJoinsSeatUserOnce(t *testing.T) {
	m := newManager()
	defer m.Close()

	r1, _ := m.CreateRoom(101, mahjong.DefaultConfig())
	r2, _ := m.CreateRoom(201, mahjong.DefaultConfig())

	var wg sync.WaitGroup
	for _, id := range []string{r1.ID, r2.ID} {
		wg.Add(1)
		go func(roomID string) {
			defer wg.Done()
			m.JoinRoom(roomID, 301)
		}(id)
	}
	wg.Wait()

	seated := 0
	for _, r := range []*room.Room{r1, r2} {
		for _, uid := range r.Seats() {
			if uid == 301 {
				seated++
			}
		}
	}
	if seated != 1 {
		t.Fatalf("用户 301 入座 %d 个房间, 应为 1", seated)
	}
	if _, err := m.RoomByUser(301); err != nil {
		t.Fatalf("入座用户必须能按用户找到房间: %v", err)
	}
}

func TestLeaveTransfersOwnershipAndDissolvesEmptyRoom(t *testing.T) {
	m := newManager()
	defer m.Close()

	r, _ := m.CreateRoom(101, mahjong.DefaultConfig())
	if _, err := m.JoinRoom(r.ID, 102); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if err := m.LeaveRoom(r.ID, 101); err != nil {
		t.Fatalf("owner leave failed: %v", err)
	}
	if r.OwnerID != 102 {
		t.Fatalf("ownership must transfer to remaining seat, owner = %d", r.OwnerID)
	}

	if err := m.LeaveRoom(r.ID, 102); err != nil {
		t.Fatalf("last leave failed: %v", err)
	}
	if _, err := m.Room(r.ID); game.CodeOf(err) != game.CodeRoomNotFound {
		t.Fatalf("empty room must dissolve, got %v", err)
	}
}

func TestVoteDissolveDuringPlay(t *testing.T) {
	m := newManager()
	defer m.Close()

	cfg := mahjong.DefaultConfig()
	cfg.DismissVotes = 2
	r, _ := m.CreateRoom(101, cfg)
	m.JoinRoom(r.ID, 102)
	m.JoinRoom(r.ID, 103)
	if r.Status() != room.StatusPlaying {
		t.Fatalf("room must be playing")
	}

	done, err := m.VoteDissolve(r.ID, 101)
	if err != nil || done {
		t.Fatalf("first vote = (%v, %v), want pending", done, err)
	}
	done, err = m.VoteDissolve(r.ID, 102)
	if err != nil || !done {
		t.Fatalf("second vote = (%v, %v), want dissolved", done, err)
	}
	if _, err := m.Room(r.ID); game.CodeOf(err) != game.CodeRoomNotFound {
		t.Fatalf("dissolved room must leave the registry")
	}
}

func TestVoteDissolveRequiresSeat(t *testing.T) {
	m := newManager()
	defer m.Close()

	r, _ := m.CreateRoom(101, mahjong.DefaultConfig())
	if _, err := m.VoteDissolve(r.ID, 999); err == nil {
		t.Fatalf("outsider vote must be rejected")
	}
}

func TestSweepDissolvesIdleWaitingRoom(t *testing.T) {
	m := room.NewManager(room.ManagerOptions{
		InactiveAge: time.Nanosecond,
		SweepEvery:  time.Millisecond,
	})
	defer m.Close()
	m.Start()

	r, err := m.CreateRoom(101, mahjong.DefaultConfig())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := m.Room(r.ID); game.CodeOf(err) == game.CodeRoomNotFound {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("闲置房间 %s 没有被清扫", r.ID)
}

func TestOwnerActiveRoomQuota(t *testing.T) {
	m := newManager()
	defer m.Close()

	// 建房后把房丢给客人，反复三次占满配额
	guests := []int64{201, 202, 203}
	for _, guest := range guests {
		r, err := m.CreateRoom(101, mahjong.DefaultConfig())
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if _, err := m.JoinRoom(r.ID, guest); err != nil {
			t.Fatalf("guest join failed: %v", err)
		}
		if err := m.LeaveRoom(r.ID, 101); err != nil {
			t.Fatalf("owner leave failed: %v", err)
		}
	}

	if _, err := m.CreateRoom(101, mahjong.DefaultConfig()); err == nil {
		t.Fatalf("fourth active room must exceed the owner quota")
	}
}
