package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/andresuchdata/salesreport/internal/drive"
	"github.com/andresuchdata/salesreport/internal/state"
	"github.com/andresuchdata/salesreport/internal/storage"
	"github.com/stretchr/testify/require"
)

const header = "memberLocalName,memberId,totalAmount,orderCount,productName,productCode,branchTransactionCode,branchReceiveCode,purchaseDate,purchaseCode,purchaseChannel,purchaseType,totalThisPrice\n"

const sampleCSV = header +
	"A,1001,100,2,X,Z1,PNH01A,N/A,2025-05-01,B1,RETAIL,Online,90\n" +
	"A,1001,50,1,X,Z1,PNH01A,N/A,2025-05-02,B2,RETAIL,Online,45\n" +
	"B,STK7,30,1,Y,Z2,KCM01B,N/A,2025-05-02,B3,RETAIL,Walk-in,30\n" +
	"D,N/A,200,1,Gift,P100,KS003,KS003,2025-05-03,B4,STOCKIEST_X,Online,0\n"

type fakeFeed struct {
	mu      sync.Mutex
	records []map[string]string
	err     error
	calls   int
}

func (f *fakeFeed) Enabled() bool { return true }

func (f *fakeFeed) Fetch(ctx context.Context) ([]map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.records, f.err
}

type fakeObjects struct {
	mu       sync.Mutex
	objects  map[string][]byte
	uploaded map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, uploaded: map[string][]byte{}}
}

func (f *fakeObjects) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for k, v := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeObjects) UploadObject(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded[key] = data
	return nil
}

type fakeDrive struct {
	name  string
	data  []byte
	files []*drive.File
}

func (f *fakeDrive) ListFiles(ctx context.Context, folderID string) ([]*drive.File, error) {
	return f.files, nil
}

func (f *fakeDrive) Fetch(ctx context.Context, fileID string) (string, []byte, error) {
	return f.name, f.data, nil
}

func remoteRecords() []map[string]string {
	return []map[string]string{
		{"CustomerName": "R1", "SKU": "Z9", "Branch": "PNH01C", "date": "5/10/2025 10:00", "Total Sales (All)": "5", "Total Price (All)": "5", "PurchaseCode": "R-1"},
	}
}

func newTestService(store state.Store, sources Sources) *ReportService {
	return NewReportService(store, sources, Options{
		TopN: 10,
		Now:  func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
}

func TestIngestFileBuildsDataset(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	svc := newTestService(store, Sources{})

	ds, err := svc.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NotEmpty(t, ds.ID)
	require.Equal(t, "may.csv", ds.FileName)
	require.Equal(t, 4, ds.Aggregates.PurchaseCount)
	require.Equal(t, "2025-05-01", ds.DateRange.Start.Format("2006-01-02"))
	require.Equal(t, "2025-05-03", ds.DateRange.End.Format("2006-01-02"))
	require.Equal(t, domain.SourceFile, svc.Active().Kind())

	restored, err := state.Restore(ctx, store)
	require.NoError(t, err)
	require.Equal(t, domain.SourceFile, restored.Kind())
}

func TestViews(t *testing.T) {
	svc := newTestService(nil, Sources{})
	_, err := svc.IngestFile(context.Background(), "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	summary, err := svc.Summary()
	require.NoError(t, err)
	require.Equal(t, "180.00", summary.TotalSalesDisplay)
	require.Equal(t, "X", summary.TopProduct.Name)
	require.Equal(t, 1, summary.TotalPromotionQuantity)
	require.Equal(t, "file", summary.Source)
	require.Equal(t, "2025-05-01 - 2025-05-03", summary.DateRange.Display)

	customers, err := svc.Customers(ViewQuery{})
	require.NoError(t, err)
	require.Len(t, customers.Items, 2)
	require.Equal(t, "A", customers.Items[0].Name)
	require.Equal(t, "1001", customers.Items[0].MemberID)
	require.Equal(t, "STK7", customers.Items[1].StockiestID)

	limited, err := svc.Customers(ViewQuery{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 2, limited.Total)
	require.Len(t, limited.Items, 1)

	branches, err := svc.Branches(ViewQuery{})
	require.NoError(t, err)
	require.Len(t, branches.Items, 2)
	require.Equal(t, "PNH01A", branches.Items[0].Branch)

	stockiest, err := svc.StockiestBranches(ViewQuery{})
	require.NoError(t, err)
	require.Len(t, stockiest.Items, 1)
	require.Equal(t, "KS003", stockiest.Items[0].Branch)

	start, _ := time.Parse("2006-01-02", "2025-05-02")
	end, _ := time.Parse("2006-01-02", "2025-05-02")
	filtered, err := svc.Customers(ViewQuery{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	require.Equal(t, "B", filtered.Items[0].Name)

	searched, err := svc.Branches(ViewQuery{Search: "kcm"})
	require.NoError(t, err)
	require.Len(t, searched.Items, 1)

	promos, err := svc.Promotions(ViewQuery{})
	require.NoError(t, err)
	require.Len(t, promos.Items, 1)
	require.Equal(t, "Gift", promos.Items[0].Name)

	daily, err := svc.Daily(ViewQuery{}, false)
	require.NoError(t, err)
	require.Equal(t, []string{"PNH01A", "KCM01B"}, daily.Branches)
	require.Len(t, daily.Days, 3)

	all, err := svc.Daily(ViewQuery{Start: &start, End: &end}, true)
	require.NoError(t, err)
	require.Len(t, all.Branches, 3)
	require.Len(t, all.Days, 1)

	types, err := svc.PurchaseTypes(ViewQuery{})
	require.NoError(t, err)
	require.Equal(t, []domain.PurchaseTypeCount{{Type: "Online", Count: 2}, {Type: "Walk-in", Count: 1}}, types.Items)
}

func TestViewsWithoutData(t *testing.T) {
	svc := newTestService(nil, Sources{})
	_, err := svc.Summary()
	require.ErrorIs(t, err, domain.ErrNoActiveData)
	_, err = svc.Customers(ViewQuery{})
	require.ErrorIs(t, err, domain.ErrNoActiveData)
}

func TestFailedIngestionKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	svc := newTestService(store, Sources{})

	first, err := svc.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	_, err = svc.IngestFile(ctx, "broken.csv", strings.NewReader("memberLocalName,totalAmount\nA,1\n"))
	require.True(t, domain.IsSchemaError(err))
	require.True(t, IsClientError(err))

	_, err = svc.IngestFile(ctx, "notes.txt", strings.NewReader("hello"))
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	ds, ok := svc.Active().Dataset()
	require.True(t, ok)
	require.Equal(t, first.ID, ds.ID)

	restored, err := state.Restore(ctx, store)
	require.NoError(t, err)
	persisted, _ := restored.Dataset()
	require.Equal(t, first.ID, persisted.ID)
}

func TestRefreshRemoteReplacesFileSource(t *testing.T) {
	ctx := context.Background()
	feed := &fakeFeed{records: remoteRecords()}
	svc := newTestService(nil, Sources{Feed: feed})

	_, err := svc.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	ds, err := svc.RefreshRemote(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.SourceRemote, svc.Active().Kind())
	require.Equal(t, remoteFileName, ds.FileName)

	customers, err := svc.Customers(ViewQuery{})
	require.NoError(t, err)
	require.Len(t, customers.Items, 1)
	require.Equal(t, "R1", customers.Items[0].Name)
	require.Equal(t, "2025-05-10", ds.DateRange.Start.Format("2006-01-02"))
}

func TestRefreshRemoteFailures(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(nil, Sources{})
	_, err := svc.RefreshRemote(ctx)
	require.ErrorIs(t, err, domain.ErrSourceDisabled)

	feed := &fakeFeed{}
	svc = newTestService(nil, Sources{Feed: feed})
	_, err = svc.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	_, err = svc.RefreshRemote(ctx)
	require.ErrorIs(t, err, domain.ErrRemoteFetch)

	feed.err = errors.New("boom")
	_, err = svc.RefreshRemote(ctx)
	require.Error(t, err)

	require.Equal(t, domain.SourceFile, svc.Active().Kind())
}

func TestRemoteFailureIsNotClientError(t *testing.T) {
	err := fmt.Errorf("%w: %v", domain.ErrRemoteFetch, fmt.Errorf("%w: parse csv: unexpected EOF", domain.ErrReadFailure))
	require.False(t, IsClientError(err))

	svc := newTestService(nil, Sources{Feed: &fakeFeed{err: err}})
	_, err = svc.RefreshRemote(context.Background())
	require.ErrorIs(t, err, domain.ErrRemoteFetch)
	require.False(t, IsClientError(err))

	require.True(t, IsClientError(fmt.Errorf("%w: bad.xlsx", domain.ErrReadFailure)))
}

func TestResetClearsAndRefreshes(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	feed := &fakeFeed{records: remoteRecords()}
	svc := newTestService(store, Sources{Feed: feed})

	_, err := svc.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))
	require.Equal(t, domain.SourceRemote, svc.Active().Kind())
	require.Equal(t, 1, feed.calls)

	noFeed := newTestService(state.NewMemoryStore(), Sources{})
	_, err = noFeed.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, noFeed.Reset(ctx))
	require.Equal(t, domain.SourceNone, noFeed.Active().Kind())
}

func TestResetKeepsClearedStateWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	svc := newTestService(store, Sources{Feed: &fakeFeed{}})

	_, err := svc.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	err = svc.Reset(ctx)
	require.ErrorIs(t, err, domain.ErrRemoteFetch)
	require.Equal(t, domain.SourceNone, svc.Active().Kind())

	payload, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, payload)
}

type clearFailingStore struct {
	state.Store
}

func (clearFailingStore) Clear(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestResetKeepsActiveDatasetWhenClearFails(t *testing.T) {
	ctx := context.Background()
	store := clearFailingStore{Store: state.NewMemoryStore()}
	svc := newTestService(store, Sources{})

	first, err := svc.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Error(t, svc.Reset(ctx))

	ds, ok := svc.Active().Dataset()
	require.True(t, ok)
	require.Equal(t, first.ID, ds.ID)

	restored, err := state.Restore(ctx, store)
	require.NoError(t, err)
	persisted, ok := restored.Dataset()
	require.True(t, ok)
	require.Equal(t, first.ID, persisted.ID)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()

	first := newTestService(store, Sources{})
	_, err := first.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	second := newTestService(store, Sources{})
	require.NoError(t, second.Restore(ctx))
	require.Equal(t, domain.SourceFile, second.Active().Kind())

	feed := &fakeFeed{records: remoteRecords()}
	fresh := NewReportService(state.NewMemoryStore(), Sources{Feed: feed}, Options{RefreshOnLoad: true})
	require.NoError(t, fresh.Restore(ctx))
	require.Equal(t, domain.SourceRemote, fresh.Active().Kind())
}

func TestIngestObjectAndArchive(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjects()
	objects.objects["uploads/may.csv"] = []byte(sampleCSV)
	objects.objects["uploads/readme.md"] = []byte("#")

	svc := NewReportService(nil, Sources{Objects: objects}, Options{ArchiveUploads: true, ArchivePrefix: "archive"})

	listed, err := svc.ListObjects(ctx, "uploads/")
	require.NoError(t, err)
	require.Len(t, listed, 1)

	ds, err := svc.IngestObject(ctx, "uploads/may.csv")
	require.NoError(t, err)
	require.Equal(t, "may.csv", ds.FileName)

	_, err = svc.IngestObject(ctx, "uploads/missing.csv")
	require.ErrorIs(t, err, domain.ErrReadFailure)

	uploaded, err := svc.IngestFile(ctx, "june.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Contains(t, objects.uploaded, "archive/"+uploaded.ID+"-june.csv")
}

func TestIngestDriveFile(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(nil, Sources{})
	_, err := svc.IngestDriveFile(ctx, "abc")
	require.ErrorIs(t, err, domain.ErrSourceDisabled)

	svc = newTestService(nil, Sources{Drive: &fakeDrive{name: "sheet.csv", data: []byte(sampleCSV)}})
	ds, err := svc.IngestDriveFile(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, "sheet.csv", ds.FileName)

	svc = newTestService(nil, Sources{Drive: &fakeDrive{name: "slides.pptx"}})
	_, err = svc.IngestDriveFile(ctx, "abc")
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestListDriveFiles(t *testing.T) {
	ctx := context.Background()

	_, err := newTestService(nil, Sources{}).ListDriveFiles(ctx, "")
	require.ErrorIs(t, err, domain.ErrSourceDisabled)

	source := &fakeDrive{files: []*drive.File{
		{ID: "1", Name: "may.csv"},
		{ID: "2", Name: "June", MimeType: "application/vnd.google-apps.spreadsheet"},
		{ID: "3", Name: "deck.pptx"},
	}}
	files, err := newTestService(nil, Sources{Drive: source}).ListDriveFiles(ctx, "folder")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "1", files[0].ID)
	require.Equal(t, "June.csv", files[1].SourceName())
}

func TestConcurrentIngestionsAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil, Sources{Feed: &fakeFeed{records: remoteRecords()}})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := svc.RefreshRemote(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	_, ok := svc.Active().Dataset()
	require.True(t, ok)
}

func TestIngestionWaitsForSlot(t *testing.T) {
	svc := newTestService(nil, Sources{})
	require.NoError(t, svc.ingestSem.Acquire(context.Background(), 1))
	defer svc.ingestSem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.IngestFile(ctx, "may.csv", strings.NewReader(sampleCSV))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, domain.SourceNone, svc.Active().Kind())
}
