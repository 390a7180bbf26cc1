package config

type WorkerKeyStruct struct {
	PersistResultsQueue string
	PersistBeaconsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistResultsQueue: "persist_results_queue",
	PersistBeaconsQueue: "persist_beacons_queue",
}
