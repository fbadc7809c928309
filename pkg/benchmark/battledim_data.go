package benchmark

// Reference start timestamps of the two BattLeDIM scenarios. All schedule
// datetimes are relative to local time, matching the published dataset
// configurations.
const (
	battledimStartTrain = "2018-01-01 00:00"
	battledimStartTest  = "2019-01-01 00:00"
)

// Leak schedules of the BattLeDIM scenarios, one event per line:
// pipe_id, start, end, diameter, kind, peak.
const battledimLeaksTrain = `p257, 2018-01-08 13:30, 2018-12-31 23:55, 0.011843, incipient, 2018-03-19 10:00
p427, 2018-01-24 18:30, 2018-12-31 23:55, 0.012587, incipient, 2018-05-05 09:00
p810, 2018-02-11 04:25, 2018-02-11 21:20, 0.010215, abrupt, 2018-02-11 04:25
p654, 2018-03-04 07:00, 2018-12-31 23:55, 0.011843, incipient, 2018-06-24 01:30
p523, 2018-03-12 17:05, 2018-03-13 12:25, 0.014063, abrupt, 2018-03-12 17:05
p827, 2018-04-02 03:15, 2018-04-02 16:30, 0.010772, abrupt, 2018-04-02 03:15
p280, 2018-04-29 09:55, 2018-04-30 06:15, 0.013305, abrupt, 2018-04-29 09:55
p653, 2018-05-20 14:10, 2018-05-21 05:40, 0.012145, abrupt, 2018-05-20 14:10
p710, 2018-07-10 03:20, 2018-12-31 23:55, 0.010926, incipient, 2018-09-16 22:00
p514, 2018-08-16 20:40, 2018-08-17 15:55, 0.012395, abrupt, 2018-08-16 20:40
p331, 2018-09-26 01:25, 2018-09-26 20:10, 0.011063, abrupt, 2018-09-26 01:25
p193, 2018-10-06 16:45, 2018-10-07 10:05, 0.013927, abrupt, 2018-10-06 16:45
p142, 2018-11-08 07:15, 2018-11-09 02:30, 0.012284, abrupt, 2018-11-08 07:15
p680, 2018-12-02 11:50, 2018-12-03 04:35, 0.010506, abrupt, 2018-12-02 11:50`

const battledimLeaksTest = `p31, 2019-01-01 00:00, 2019-12-31 23:55, 0.011396, incipient, 2019-04-02 16:00
p461, 2019-01-28 05:35, 2019-01-28 22:25, 0.010879, abrupt, 2019-01-28 05:35
p538, 2019-02-13 08:25, 2019-02-14 01:15, 0.012284, abrupt, 2019-02-13 08:25
p628, 2019-03-10 13:10, 2019-12-31 23:55, 0.012733, incipient, 2019-06-12 11:30
p866, 2019-04-06 02:45, 2019-04-06 18:55, 0.011237, abrupt, 2019-04-06 02:45
p158, 2019-05-18 10:20, 2019-05-19 04:05, 0.013475, abrupt, 2019-05-18 10:20
p183, 2019-06-28 21:05, 2019-06-29 14:40, 0.010654, abrupt, 2019-06-28 21:05
p369, 2019-07-26 04:50, 2019-12-31 23:55, 0.011824, incipient, 2019-10-02 07:00
p654, 2019-08-17 15:30, 2019-08-18 09:10, 0.012906, abrupt, 2019-08-17 15:30
p810, 2019-09-13 19:25, 2019-09-14 12:45, 0.010215, abrupt, 2019-09-13 19:25
p514, 2019-10-25 06:40, 2019-10-26 00:20, 0.011684, abrupt, 2019-10-25 06:40
p331, 2019-11-20 23:55, 2019-11-21 17:35, 0.012046, abrupt, 2019-11-20 23:55`
