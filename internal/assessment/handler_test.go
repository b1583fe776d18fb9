package assessment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	state       *PatientState
	initialized bool
	questions   []CandidateQuestion
	due         bool
	summary     string
	err         error

	gotAnswers map[string]int
	gotContext map[string]QuestionContext
}

func (f *fakeService) GetOrInitState(ctx context.Context, patientID uuid.UUID) (*PatientState, bool, error) {
	return f.state, f.initialized, f.err
}

func (f *fakeService) IsDue(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return f.due, f.err
}

func (f *fakeService) AdaptiveQuestions(ctx context.Context, patientID uuid.UUID) ([]CandidateQuestion, bool, error) {
	return f.questions, f.due, f.err
}

func (f *fakeService) SubmitAnswers(ctx context.Context, patientID uuid.UUID, answers map[string]int, questionContext map[string]QuestionContext) (*PatientState, error) {
	f.gotAnswers = answers
	f.gotContext = questionContext
	return f.state, f.err
}

func (f *fakeService) Summary(ctx context.Context, patientID uuid.UUID) (string, error) {
	return f.summary, f.err
}

func newTestRouter(svc Service) *chi.Mux {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc))
	return r
}

func TestGetStateEndpoint(t *testing.T) {
	patientID := uuid.New()
	svc := &fakeService{
		state:       &PatientState{PatientID: patientID, StressScore: 50, EnergyScore: 50, Trend: TrendStable},
		initialized: true,
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/patients/"+patientID.String()+"/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		State       PatientState `json:"state"`
		Initialized bool         `json:"initialized"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Initialized)
	assert.Equal(t, 50, body.State.StressScore)
}

func TestGetStateEndpoint_InvalidID(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/patients/not-a-uuid/state", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuestionsEndpoint_NotDue(t *testing.T) {
	router := newTestRouter(&fakeService{due: false})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/patients/"+uuid.NewString()+"/questions", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["due"])
	assert.Equal(t, "Next assessment available tomorrow", body["message"])
}

func TestGetQuestionsEndpoint_Due(t *testing.T) {
	svc := &fakeService{
		due: true,
		questions: []CandidateQuestion{
			{ID: "ai_1", QuestionText: "q1", Category: CategoryStress, Weight: 6, Source: SourceAI},
			{ID: "ai_2", QuestionText: "q2", Category: CategoryEnergy, Weight: 6, Source: SourceAI},
			{ID: "ai_3", QuestionText: "q3", Category: CategoryStress, Weight: 6, Source: SourceAI},
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/patients/"+uuid.NewString()+"/questions", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Due       bool                `json:"due"`
		Questions []CandidateQuestion `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Due)
	assert.Len(t, body.Questions, 3)
}

func TestGetQuestionsEndpoint_PatientNotFound(t *testing.T) {
	router := newTestRouter(&fakeService{err: ErrPatientNotFound})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/patients/"+uuid.NewString()+"/questions", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitAnswersEndpoint(t *testing.T) {
	svc := &fakeService{state: &PatientState{StressScore: 58, EnergyScore: 44, Trend: TrendDeclining}}
	router := newTestRouter(svc)

	payload := `{"answers": {"1": 4, "ai_1": 5},
		"context": {"ai_1": {"weight": 6, "category": "energy", "question_text": "q"}}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST",
		"/patients/"+uuid.NewString()+"/assessment", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"1": 4, "ai_1": 5}, svc.gotAnswers)
	assert.Equal(t, CategoryEnergy, svc.gotContext["ai_1"].Category)

	var state PatientState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 58, state.StressScore)
}

func TestSubmitAnswersEndpoint_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"answers": `},
		{"no answers", `{"answers": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeService{})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("POST",
				"/patients/"+uuid.NewString()+"/assessment", strings.NewReader(tt.payload)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetSummaryEndpoint(t *testing.T) {
	router := newTestRouter(&fakeService{summary: "stable week"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/patients/"+uuid.NewString()+"/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "stable week", body["summary"])
}
