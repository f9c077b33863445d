package reports

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	boardstore "github.com/dalemusser/taskboard/internal/app/store/boards"
	columnstore "github.com/dalemusser/taskboard/internal/app/store/columns"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/app/system/boardreport"
	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeWorkspaces map[primitive.ObjectID]models.Workspace

func (f fakeWorkspaces) GetByID(_ context.Context, id primitive.ObjectID) (models.Workspace, error) {
	ws, ok := f[id]
	if !ok {
		return models.Workspace{}, workspacestore.ErrNotFound
	}
	return ws, nil
}

type fakeBoards []models.Board

func (f fakeBoards) GetByID(_ context.Context, id primitive.ObjectID) (models.Board, error) {
	for _, b := range f {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Board{}, boardstore.ErrNotFound
}

func (f fakeBoards) ListByWorkspace(_ context.Context, ws primitive.ObjectID) ([]models.Board, error) {
	var out []models.Board
	for _, b := range f {
		if b.WorkspaceID == ws {
			out = append(out, b)
		}
	}
	return out, nil
}

var otherBoard = models.Board{ID: primitive.NewObjectID(), Name: "Elsewhere", WorkspaceID: primitive.NewObjectID()}

func newTestHandler(t *testing.T) (*Handler, models.Workspace, testutil.TestUser) {
	t.Helper()
	owner := primitive.NewObjectID()
	ws := models.Workspace{ID: primitive.NewObjectID(), Name: "Team", OwnerID: owner}
	board := models.Board{ID: primitive.NewObjectID(), Name: "Sprint", WorkspaceID: ws.ID}

	store := docstore.NewMemory()
	ctx := context.Background()
	col, err := columnstore.New(store).Create(ctx, board.ID, "To Do")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := taskstore.New(store).Create(ctx, board.ID, col.ID, "Write tests", ""); err != nil {
		t.Fatal(err)
	}

	h := &Handler{
		Workspaces: fakeWorkspaces{ws.ID: ws},
		Builder:    boardreport.NewBuilder(fakeBoards{board, otherBoard}, store),
		Log:        zap.NewNop(),
	}
	return h, ws, testutil.UserFromID(owner, "Owner")
}

func post(h *Handler, body string, user testutil.TestUser) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	req = testutil.WithUser(req, user)
	rec := httptest.NewRecorder()
	h.HandleReport(rec, req)
	return rec
}

func TestHandleReport_JSON(t *testing.T) {
	h, ws, user := newTestHandler(t)

	rec := post(h, `{"workspaceId":"`+ws.ID.Hex()+`"}`, user)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var rep boardreport.Report
	if err := sonic.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rep.Tasks) != 1 || rep.Tasks[0].Title != "Write tests" || rep.Tasks[0].ColumnName != "To Do" {
		t.Errorf("tasks = %+v", rep.Tasks)
	}
}

func TestHandleReport_CSV(t *testing.T) {
	h, ws, user := newTestHandler(t)

	rec := post(h, `{"workspaceId":"`+ws.ID.Hex()+`","format":"csv"}`, user)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Errorf("content disposition = %q", cd)
	}
	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 || records[1][4] != "Write tests" {
		t.Errorf("records = %v", records)
	}
}

func TestHandleReport_Rejections(t *testing.T) {
	h, ws, user := newTestHandler(t)
	wsHex := ws.ID.Hex()

	tests := []struct {
		name     string
		body     string
		user     testutil.TestUser
		wantCode int
	}{
		{"empty body", ``, user, http.StatusBadRequest},
		{"bad format", `{"workspaceId":"` + wsHex + `","format":"xml"}`, user, http.StatusBadRequest},
		{"bad date", `{"workspaceId":"` + wsHex + `","startDate":"yesterday"}`, user, http.StatusBadRequest},
		{"missing workspace", `{}`, user, http.StatusBadRequest},
		{"unknown workspace", `{"workspaceId":"` + primitive.NewObjectID().Hex() + `"}`, user, http.StatusNotFound},
		{"not a member", `{"workspaceId":"` + wsHex + `"}`, testutil.NewTestUser("Stranger", "s@example.com"), http.StatusForbidden},
		{"unknown board", `{"workspaceId":"` + wsHex + `","boardId":"` + primitive.NewObjectID().Hex() + `"}`, user, http.StatusNotFound},
		{"board in another workspace", `{"workspaceId":"` + wsHex + `","boardId":"` + otherBoard.ID.Hex() + `"}`, user, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h, tt.body, tt.user)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}
